// Package mocks provides gomock implementations of the eligibility-sync ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockResultStore(ctrl)
//	store.EXPECT().SaveIntake(gomock.Any(), model.SourcePrimary, gomock.Len(2)).Return(2, nil)
package mocks

// Pipeline collaborators: Fetch, Check, Extract, SaveIntake/SaveResults, Write.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=row_fetcher_mock.go github.com/target/eligibility-sync/internal/core RowFetcher
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=eligibility_checker_mock.go github.com/target/eligibility-sync/internal/core EligibilityChecker
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=outcome_extractor_mock.go github.com/target/eligibility-sync/internal/core OutcomeExtractor
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=result_store_mock.go github.com/target/eligibility-sync/internal/core ResultStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=snapshot_writer_mock.go github.com/target/eligibility-sync/internal/core SnapshotWriter

// Alerting: Record, Forward, Allow.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=alert_recorder_mock.go github.com/target/eligibility-sync/internal/core AlertRecorder
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=alert_forwarder_mock.go github.com/target/eligibility-sync/internal/core AlertForwarder
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=alert_limiter_mock.go github.com/target/eligibility-sync/internal/core AlertLimiter
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/eligibility-sync/internal/core CacheRepository

// Scheduling: RunSafely, Execute.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_runner_mock.go github.com/target/eligibility-sync/internal/core JobRunner
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_executor_mock.go github.com/target/eligibility-sync/internal/core JobExecutor
