// Package console provides an Adapter for local development that reads user
// messages from an input stream and prints agent replies to an output stream.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/agenthost/activity"
	"github.com/hupe1980/agenthost/core"
	"github.com/hupe1980/agenthost/logging"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Input is the stream user messages are read from.
	Input io.Reader
	// Output is the stream agent replies are printed to.
	Output io.Writer
	// ChannelID stamps synthesized activities. Defaults to "console".
	ChannelID string
	// UserID identifies the local user on synthesized activities.
	UserID string
	// Logging services.
	Logger logging.Logger
}

// Adapter is a stdin/stdout channel for running an agent locally. It
// implements core.Adapter.
type Adapter struct {
	input     *bufio.Scanner
	output    io.Writer
	channelID string
	userID    string
	convID    string
	logger    logging.Logger
}

// New constructs a console adapter with optional overrides.
func New(optFns ...func(o *Options)) *Adapter {
	opts := Options{
		Input:     os.Stdin,
		Output:    os.Stdout,
		ChannelID: "console",
		UserID:    "user",
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Adapter{
		input:     bufio.NewScanner(opts.Input),
		output:    opts.Output,
		channelID: opts.ChannelID,
		userID:    opts.UserID,
		convID:    uuid.NewString(),
		logger:    opts.Logger,
	}
}

// SendActivities prints message text to the output stream. Typing activities
// are shown as an ellipsis; other types are silently acknowledged.
func (a *Adapter) SendActivities(_ *core.TurnContext, activities []*activity.Activity) ([]activity.ResourceResponse, error) {
	responses := make([]activity.ResourceResponse, 0, len(activities))
	for _, act := range activities {
		switch act.Type {
		case activity.TypeMessage:
			if _, err := fmt.Fprintf(a.output, "%s\n", act.Text); err != nil {
				return nil, err
			}
		case activity.TypeTyping:
			if _, err := fmt.Fprintln(a.output, "..."); err != nil {
				return nil, err
			}
		}
		responses = append(responses, activity.ResourceResponse{ID: uuid.NewString()})
	}
	return responses, nil
}

// ContinueConversation synthesizes an event turn for the given reference and
// runs logic inside it.
func (a *Adapter) ContinueConversation(ctx context.Context, identity core.Claims, ref *activity.ConversationReference, logic func(*core.TurnContext) error) error {
	act := &activity.Activity{Type: activity.TypeEvent, Name: "continueConversation"}
	act.ApplyConversationReference(ref, true)
	tc := core.NewTurnContext(ctx, a, act, identity, a.logger)
	return logic(tc)
}

// NextActivity blocks for the next input line and returns it as an inbound
// message activity. io.EOF signals the input stream ended.
func (a *Adapter) NextActivity() (*activity.Activity, error) {
	if !a.input.Scan() {
		if err := a.input.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	text := strings.TrimSpace(a.input.Text())
	act := activity.NewMessageActivity(text)
	act.ChannelID = a.channelID
	act.ServiceURL = "urn:console"
	act.Conversation = &activity.ConversationAccount{ID: a.convID}
	act.From = &activity.ChannelAccount{ID: a.userID, Name: a.userID, Role: "user"}
	act.Recipient = &activity.ChannelAccount{ID: "agent", Name: "agent", Role: "agent"}
	return act, nil
}

// Process runs one turn per input line until the context is canceled or the
// input stream ends. Each activity is handed to handler with a fresh turn
// context.
func (a *Adapter) Process(ctx context.Context, identity core.Claims, handler func(*core.TurnContext) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		act, err := a.NextActivity()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if act.Text == "" {
			continue
		}

		tc := core.NewTurnContext(ctx, a, act, identity, a.logger)
		if err := handler(tc); err != nil {
			return err
		}
	}
}
