package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
)

// fakeReader serves msgs, then cancels the run and reports ctx errors.
type fakeReader struct {
	msgs      []kafka.Message
	readErrs  []error
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.readErrs) > 0 {
		err := r.readErrs[0]
		r.readErrs = r.readErrs[1:]
		return kafka.Message{}, err
	}
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type fakePusher struct {
	pushed [][]byte
	err    error
}

func (p *fakePusher) PushEventJSON(_ context.Context, raw []byte) error {
	p.pushed = append(p.pushed, raw)
	return p.err
}

func TestConsume_PushesAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{
		msgs:     []kafka.Message{{Offset: 1, Value: []byte(`{"id":"a"}`)}, {Offset: 2, Value: []byte(`{"id":"b"}`)}},
		readErrs: []error{errors.New("broker unavailable")},
		cancel:   cancel,
	}
	client := &fakePusher{}
	var logs bytes.Buffer

	consume(ctx, reader, client, slog.New(slog.NewTextHandler(&logs, nil)))

	if len(client.pushed) != 2 || string(client.pushed[1]) != `{"id":"b"}` {
		t.Errorf("pushed = %q", client.pushed)
	}
	if len(reader.committed) != 2 || reader.committed[0] != 1 || reader.committed[1] != 2 {
		t.Errorf("committed = %v, want [1 2]", reader.committed)
	}
	if !bytes.Contains(logs.Bytes(), []byte("broker unavailable")) {
		t.Errorf("read error not logged: %s", logs.String())
	}
}

func TestConsume_PushFailureIsLogged(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{msgs: []kafka.Message{{Offset: 7, Value: []byte("x")}}, cancel: cancel}
	var logs bytes.Buffer

	consume(ctx, reader, &fakePusher{err: errors.New("loki: push returned 500")}, slog.New(slog.NewTextHandler(&logs, nil)))

	if !bytes.Contains(logs.Bytes(), []byte("loki push failed")) {
		t.Errorf("push failure not logged: %s", logs.String())
	}
	if len(reader.committed) != 1 {
		t.Errorf("committed = %v, want the failed message committed", reader.committed)
	}
}
