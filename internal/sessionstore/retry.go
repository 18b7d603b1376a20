package sessionstore

import (
	"github.com/sirupsen/logrus"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
)

// UpdateWithRetry applies mutate against whatever version of the session s
// currently holds (see Store.Update), retrying up to maxRetries times if a concurrent writer
// won the race in between. It gives up and returns the last
// ConcurrencyConflict once the budget is exhausted rather than retrying
// forever.
func UpdateWithRetry(s *Store, repoPath string, maxRetries int, mutate func(domain.StoredRebaseSession) domain.StoredRebaseSession) (domain.StoredRebaseSession, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		current, ok := s.Get(repoPath)
		if !ok {
			return domain.StoredRebaseSession{}, &coreerrors.ConcurrencyConflict{Reason: "not_found"}
		}

		updated, err := s.Update(repoPath, current.Version, mutate)
		if err == nil {
			return updated, nil
		}

		var conflict *coreerrors.ConcurrencyConflict
		if !coreerrors.As(err, &conflict) || conflict.Reason != "version_mismatch" {
			return domain.StoredRebaseSession{}, err
		}
		lastErr = err
		logrus.WithField("repo_path", repoPath).
			WithField("attempt", attempt).
			Debug("session store update lost a version race, retrying")
	}
	return domain.StoredRebaseSession{}, lastErr
}
