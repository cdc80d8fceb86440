package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vplan-backend/lib/changedetect"
	"vplan-backend/lib/scrapers/untis"
	"vplan-backend/lib/telemetry"
	"vplan-backend/lib/timezone"
	"vplan-backend/lib/topics"

	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	msg   Message
}

type fakeTransport struct {
	mutex    sync.Mutex
	sent     []published
	failures map[string]bool
}

func (f *fakeTransport) Publish(_ context.Context, topic string, msg Message) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.failures[topic] {
		return &DispatchError{Topic: topic, Err: errors.New("connection reset")}
	}
	f.sent = append(f.sent, published{topic: topic, msg: msg})
	return nil
}

func (f *fakeTransport) topics() []string {
	var out []string
	for _, p := range f.sent {
		out = append(out, p.topic)
	}
	return out
}

type fakeDirectory map[string][]string

func (f fakeDirectory) DevicesForTopics(_ context.Context, topicList []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, topic := range topicList {
		for _, device := range f[topic] {
			if !seen[device] {
				seen[device] = true
				out = append(out, device)
			}
		}
	}
	return out, nil
}

func exampleRecord() untis.SubstitutionRecord {
	return untis.SubstitutionRecord{
		Date:              timezone.Date(2023, time.February, 21),
		ClassName:         "10c",
		Lesson:            "2",
		SubstituteTeacher: "BSU",
		OriginalTeacher:   "GAR",
		Type:              "Vertretung",
		SubstituteOf:      "Mo-21.2./4",
		Room:              "H301",
		Text:              "Aufg. vorhanden",
	}
}

func TestDispatchTopics(t *testing.T) {
	transport := &fakeTransport{}
	dispatcher := NewDispatcher(transport, topics.Expander{}, nil, &telemetry.MemoryAPI{})

	report := dispatcher.Dispatch(context.Background(), []Change{{Record: exampleRecord(), Kind: KindNew}})
	require.NoError(t, report.Err)
	require.Equal(t, 2, report.Sent)
	require.Equal(t, []string{"class.10c", "teacher.GAR"}, transport.topics())

	msg := transport.sent[0].msg
	require.Equal(t, "Vertretung 10c, 2. Stunde", msg.Title)
	require.Equal(t, "Di 21.02.: GAR → BSU, Raum H301 (statt Mo-21.2./4)\nAufg. vorhanden", msg.Body)
	require.Equal(t, exampleRecord(), msg.Change.Record)
}

func TestDispatchFailuresAreIndependent(t *testing.T) {
	transport := &fakeTransport{failures: map[string]bool{"class.5a": true}}
	tel := &telemetry.MemoryAPI{}
	dispatcher := NewDispatcher(transport, topics.Expander{}, nil, tel)

	merged := exampleRecord()
	merged.ClassName = "5ab"
	malformed := exampleRecord()
	malformed.ClassName = "ABCD"
	malformed.OriginalTeacher = "KOE"

	report := dispatcher.Dispatch(context.Background(), []Change{
		{Record: merged, Kind: KindChanged},
		{Record: malformed, Kind: KindNew},
	})

	require.Equal(t, []string{"class.5b", "teacher.GAR", "teacher.KOE"}, transport.topics())
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Malformed)
	require.Equal(t, 3, report.Sent)

	var dispatchErr *DispatchError
	require.True(t, errors.As(report.Err, &dispatchErr))
	var malformedErr *topics.MalformedLabelError
	require.True(t, errors.As(report.Err, &malformedErr))

	require.True(t, tel.Has("broken", report_publish))
	require.True(t, tel.Has("warning", report_expand_label))
	require.Equal(t, "Geändert: Vertretung 5ab, 2. Stunde", transport.sent[0].msg.Title)
}

func TestDispatchRecipients(t *testing.T) {
	transport := &fakeTransport{}
	directory := fakeDirectory{
		"class.10c":   {"device-1"},
		"teacher.GAR": {"device-1", "device-2"},
		"class.5a":    {"device-3"},
	}
	dispatcher := NewDispatcher(
		transport,
		topics.Expander{},
		SubscriptionRecipients{Directory: directory},
		&telemetry.MemoryAPI{},
	)

	report := dispatcher.Dispatch(context.Background(), []Change{{Record: exampleRecord()}})
	require.NoError(t, report.Err)
	require.Equal(t, []string{"class.10c", "teacher.GAR", "device-1", "device-2"}, transport.topics())
}

func TestChangesFromDelta(t *testing.T) {
	changed := exampleRecord()
	changed.Room = "H302"

	changes := ChangesFromDelta(changedetect.Delta{
		New:       []changedetect.Insert{{Record: exampleRecord()}},
		Changed:   []changedetect.Update{{Record: changed}},
		Unchanged: []changedetect.Persisted{{Record: exampleRecord()}},
		Removed:   []changedetect.Persisted{{Record: exampleRecord()}},
	})
	require.Len(t, changes, 2)
	require.Equal(t, KindNew, changes[0].Kind)
	require.Equal(t, KindChanged, changes[1].Kind)
	require.Equal(t, "H302", changes[1].Record.Room)

	require.Empty(t, ChangesFromDelta(changedetect.Delta{}))
}
