package consumer

import (
	"encoding/json"
	"errors"

	"github.com/Eursukkul/hotel-booking/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type RateApplier interface {
	Apply(rate service.RoomRate) error
}

// RateConsumer applies room rate messages to the live tariff.
type RateConsumer struct {
	tariffs RateApplier
	logger  *logrus.Logger
}

func NewRateConsumer(tariffs RateApplier, logger *logrus.Logger) *RateConsumer {
	return &RateConsumer{tariffs: tariffs, logger: logger}
}

// Start handles messages until msgs is closed. The returned channel is closed once the
// last message has been handled.
func (rc *RateConsumer) Start(msgs <-chan amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			rc.handleMessage(msg)
		}
		rc.log().Info("channel closed, stopping consumer")
	}()
	return done
}

func (rc *RateConsumer) log() *logrus.Entry {
	return rc.logger.WithFields(logrus.Fields{"path": "consumer/rates"})
}

func (rc *RateConsumer) handleMessage(msg amqp.Delivery) {
	var rate service.RoomRate
	if err := json.Unmarshal(msg.Body, &rate); err != nil {
		rc.log().WithField("routingKey", msg.RoutingKey).Error("failed to unmarshal rate: ", err)
		msg.Nack(false, false)
		return
	}

	if err := rc.tariffs.Apply(rate); err != nil {
		// a rate that does not validate will never validate, so it is dropped
		rc.log().WithField("roomType", rate.Type).Error("rejected rate: ", err)
		if errors.Is(err, service.ErrInvalidRoomType) {
			msg.Reject(false)
		} else {
			msg.Nack(false, false)
		}
		return
	}

	rc.log().WithFields(logrus.Fields{
		"roomType": rate.Type,
		"capacity": rate.Capacity,
		"price":    rate.Price,
	}).Info("applied room rate")
	msg.Ack(false)
}
