package seatevents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSeatEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewKafkaPublisherWithProducer(producer, DefaultProducerConfig())

	floorPlanID := uuid.New()
	seatID := uuid.New()
	holdID := uuid.New()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got SeatEvent
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Type != EventSeatsHeld || got.FloorPlanID != floorPlanID {
			return errors.New("unexpected seat event payload")
		}
		if got.HoldID == nil || *got.HoldID != holdID {
			return errors.New("hold id missing from payload")
		}
		return nil
	})

	event := NewSeatEvent(EventSeatsHeld, floorPlanID, uuid.New(), []uuid.UUID{seatID})
	event.HoldID = &holdID

	require.NoError(t, publisher.PublishSeatEvent(context.Background(), event))
	require.NoError(t, publisher.Close())
}

func TestPublishBookingEvent_Failure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	publisher := NewKafkaPublisherWithProducer(producer, DefaultProducerConfig())

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := publisher.PublishBookingEvent(context.Background(), &BookingEvent{
		ID:        uuid.New(),
		Type:      EventBookingConfirmed,
		BookingID: uuid.New(),
		Reference: "BK-20260101-ABCDEF",
	})

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, publisher.Close())
}

func TestSeatEventPartitionKey(t *testing.T) {
	floorPlanID := uuid.New()
	event := NewSeatEvent(EventSeatsReleased, floorPlanID, uuid.New(), nil)

	assert.Equal(t, floorPlanID.String(), event.PartitionKey())
	assert.False(t, event.OccurredAt.IsZero())
}
