package notify

import (
	"context"

	"vplan-backend/lib/telemetry"
	"vplan-backend/lib/topics"

	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("vplan.services.notify")

const (
	report_expand_label = "dispatcher.expand-label"
	report_publish      = "dispatcher.publish"
	report_recipients   = "dispatcher.recipients"
)

// Report summarises one Dispatch call.
type Report struct {
	Changes   int
	Sent      int
	Failed    int
	Malformed int
	// Err holds every DispatchError and MalformedLabelError met.
	Err error
}

type Dispatcher struct {
	transport  Transport
	expander   topics.Expander
	recipients RecipientLookup
	tel        telemetry.API

	sent   metric.Int64Counter
	failed metric.Int64Counter
}

// NewDispatcher creates a dispatcher, recipients may be nil to disable the
// per device path.
func NewDispatcher(transport Transport, expander topics.Expander, recipients RecipientLookup, tel telemetry.API) *Dispatcher {
	meter := otel.Meter("vplan.services.notify")
	sent, _ := meter.Int64Counter("notifications_sent")
	failed, _ := meter.Int64Counter("notifications_failed")

	return &Dispatcher{
		transport:  transport,
		expander:   expander,
		recipients: recipients,
		tel:        tel,
		sent:       sent,
		failed:     failed,
	}
}

func (d *Dispatcher) publish(ctx context.Context, report *Report, topic string, msg Message) {
	err := d.transport.Publish(ctx, topic, msg)
	if err != nil {
		d.tel.ReportBroken(report_publish, topic, err)
		report.Failed++
		report.Err = multierror.Append(report.Err, err)
		d.failed.Add(ctx, 1)
		return
	}
	report.Sent++
	d.sent.Add(ctx, 1)
}

// Dispatch sends one message per topic of every change: the class topics
// of its label plus its teacher topic, then one message per subscribed
// device. Every send is independent, failures are reported and skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, changes []Change) Report {
	ctx, span := tracer.Start(ctx, "Dispatch")
	defer span.End()

	report := Report{Changes: len(changes)}
	for _, change := range changes {
		msg := FormatMessage(change)

		topicList, err := d.expander.ForRecord(change.Record.ClassName, change.Record.OriginalTeacher)
		if err != nil {
			d.tel.ReportWarning(report_expand_label, change.Record.ClassName, err)
			report.Malformed++
			report.Err = multierror.Append(report.Err, err)
		}
		for _, topic := range topicList {
			d.publish(ctx, &report, topic, msg)
		}

		if d.recipients == nil {
			continue
		}
		devices, err := d.recipients.Recipients(ctx, change.Record, topicList)
		if err != nil {
			d.tel.ReportBroken(report_recipients, change.Record.String(), err)
			report.Err = multierror.Append(report.Err, err)
			continue
		}
		for _, device := range devices {
			d.publish(ctx, &report, device, msg)
		}
	}

	span.SetAttributes(
		attribute.Int("changes", report.Changes),
		attribute.Int("sent", report.Sent),
		attribute.Int("failed", report.Failed),
	)
	return report
}
