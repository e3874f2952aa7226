package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/adminotp/internal/adminotp/usecase"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/messaging"
	"github.com/shandysiswandi/adminotp/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishLoginEvent(ctx context.Context, msg usecase.LoginEvent) error {
	ctx, span := m.ins.Tracer("adminotp.outbound.mq").Start(ctx, "PublishLoginEvent")
	defer span.End()

	body, err := json.Marshal(event.LoginEventMessage{
		PrincipalID: msg.PrincipalID,
		Mobile:      msg.Mobile,
		Outcome:     string(msg.Outcome),
		Attempts:    msg.Attempts,
		ClientIP:    msg.ClientIP,
		OccurredAt:  msg.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	headers := []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(instrument.GetCorrelationID(ctx))}}

	traceHeaders := map[string]string{}
	instrument.InjectHeaders(ctx, traceHeaders)
	for k, v := range traceHeaders {
		headers = append(headers, messaging.Header{Key: k, Value: []byte(v)})
	}

	if _, err := m.client.Publish(ctx, event.LoginEventDestination, messaging.OutgoingMessage{
		Key:     []byte(strconv.FormatInt(msg.PrincipalID, 10)),
		Body:    body,
		Headers: headers,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
