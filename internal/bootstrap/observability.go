package bootstrap

import (
	"log/slog"

	"github.com/target/eligibility-sync/config"
	"github.com/target/eligibility-sync/internal/observability/notify/email"
	"github.com/target/eligibility-sync/internal/observability/notify/pagerduty"
	"github.com/target/eligibility-sync/internal/observability/notify/sendgrid"
	"github.com/target/eligibility-sync/internal/observability/notify/slack"
	"github.com/target/eligibility-sync/internal/observability/statsd"
	"github.com/target/eligibility-sync/internal/service/failurenotifier"
)

// ObservabilityContainer holds the metrics client and the alert forwarder.
type ObservabilityContainer struct {
	Metrics  *statsd.Client
	Notifier *failurenotifier.Service
}

// BuildObservability wires metrics and secondary alert transports. A metrics
// endpoint that cannot be dialed disables metrics instead of failing startup.
func BuildObservability(cfg config.AppConfig, logger *slog.Logger) ObservabilityContainer {
	if logger == nil {
		logger = slog.Default()
	}
	obsLogger := logger.With("component", "observability")

	metricsCfg := cfg.Observability.Metrics
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    metricsCfg.IsEnabled(),
		Address:    metricsCfg.StatsdAddress,
		Prefix:     metricsCfg.Prefix,
		Logger:     obsLogger,
		GlobalTags: map[string]string{"system": cfg.Alerts.SystemName},
	})
	if err != nil {
		obsLogger.Warn("statsd unavailable, metrics disabled", "address", metricsCfg.StatsdAddress, "error", err)
		client, _ = statsd.NewClient(statsd.Config{Logger: obsLogger})
	}

	return ObservabilityContainer{
		Metrics:  client,
		Notifier: buildFailureNotifier(obsLogger, cfg.Observability.Notifications, cfg.Alerts.SystemName),
	}
}

// Close releases the metrics socket.
func (c ObservabilityContainer) Close() error {
	if c.Metrics == nil {
		return nil
	}
	return c.Metrics.Close()
}

func buildFailureNotifier(
	logger *slog.Logger,
	cfg config.ObservabilityNotificationsConfig,
	system string,
) *failurenotifier.Service {
	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: logger, System: system})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 4)
	register := func(name string, build func() (failurenotifier.SinkRegistration, error)) {
		reg, err := build()
		if err != nil {
			logger.Error("failed to initialise notifier", "sink", name, "error", err)
			return
		}
		sinks = append(sinks, reg)
	}

	if cfg.Slack.Enabled {
		register("slack", func() (failurenotifier.SinkRegistration, error) {
			client, err := slack.NewClient(slack.Config{
				WebhookURL: cfg.Slack.WebhookURL,
				Channel:    cfg.Slack.Channel,
				Username:   cfg.Slack.Username,
				Timeout:    cfg.Timeout,
				RetryLimit: cfg.RetryLimit,
			})
			return failurenotifier.SinkRegistration{Name: "slack", Sink: client}, err
		})
	}

	if cfg.PagerDuty.Enabled {
		register("pagerduty", func() (failurenotifier.SinkRegistration, error) {
			client, err := pagerduty.NewClient(pagerduty.Config{
				RoutingKey: cfg.PagerDuty.RoutingKey,
				Source:     cfg.PagerDuty.Source,
				Component:  cfg.PagerDuty.Component,
				Timeout:    cfg.Timeout,
				RetryLimit: cfg.RetryLimit,
			})
			return failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client}, err
		})
	}

	if cfg.Email.Enabled {
		register("email", func() (failurenotifier.SinkRegistration, error) {
			client, err := email.NewClient(email.Config{
				Host:       cfg.Email.Host,
				Port:       cfg.Email.Port,
				Username:   cfg.Email.Username,
				Password:   cfg.Email.Password,
				From:       cfg.Email.From,
				To:         cfg.Email.To,
				Security:   cfg.Email.Security,
				Timeout:    cfg.Timeout,
				RetryLimit: cfg.RetryLimit,
			})
			return failurenotifier.SinkRegistration{Name: "email", Sink: client}, err
		})
	}

	if cfg.SendGrid.Enabled {
		register("sendgrid", func() (failurenotifier.SinkRegistration, error) {
			client, err := sendgrid.NewClient(sendgrid.Config{
				APIKey:     cfg.SendGrid.APIKey,
				From:       cfg.SendGrid.From,
				FromName:   cfg.SendGrid.FromName,
				To:         cfg.SendGrid.To,
				RetryLimit: cfg.RetryLimit,
			})
			return failurenotifier.SinkRegistration{Name: "sendgrid", Sink: client}, err
		})
	}

	svc := failurenotifier.NewService(failurenotifier.Options{Logger: logger, Sinks: sinks, System: system})
	logger.Info("alert forwarding configured", "sinks", svc.SinkNames())
	return svc
}
