package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/ghuser/recordvault/pkg/telemetry"
	"github.com/ghuser/recordvault/services/record/domain/repositories"
)

// RegisterStoreGauges exposes the live record count and the longest name
// length as observable gauges, read from the store on every collection.
func RegisterStoreGauges(repo repositories.RecordRepository) error {
	meter := otel.Meter(telemetry.InstrumentationName)

	records, err := meter.Int64ObservableGauge("vault.records",
		metric.WithDescription("Live records in the store"))
	if err != nil {
		return err
	}
	longest, err := meter.Int64ObservableGauge("vault.records.longest_name_length",
		metric.WithDescription("Longest record name in code points"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(records, int64(n))

		rec, err := repo.LongestName(ctx)
		if err != nil {
			return err
		}
		length := 0
		if rec != nil {
			length = rec.Name.Len()
		}
		o.ObserveInt64(longest, int64(length))
		return nil
	}, records, longest)
	return err
}
