//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"eduledger/internal/ledgerlog"
	"eduledger/internal/ledgerlog/kafka"
	"eduledger/pkg/testutil/containers"
)

func TestPublisherProducesKeyedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)
	const topic = "eduledger.certificate-events.test"

	pub, err := kafka.NewPublisher(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	defer pub.Close()

	want := ledgerlog.Event{
		ID:            uuid.New(),
		Type:          ledgerlog.TypeCertificateIssued,
		Timestamp:     time.Now().UTC(),
		CertificateID: "EDU-2024-001",
		DocHash:       "0x1111111111111111111111111111111111111111111111111111111111111111",
	}
	require.NoError(t, pub.Publish(ctx, want))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "EDU-2024-001", string(records[0].Key))

	var got ledgerlog.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Type, got.Type)
}
