// Package gochannel provides the in-process publisher and subscriber for single-node deployments and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// outputBuffer bounds how many campaign events can queue per subscriber
// before Publish starts blocking.
const outputBuffer = 256

// CreateChannel returns one GoChannel as both publisher and subscriber.
// Events never leave the process and are dropped once every subscriber has seen them.
func CreateChannel(logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: outputBuffer,
	}, logger)

	return pubSub, pubSub, nil
}
