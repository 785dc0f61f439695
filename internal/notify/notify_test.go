package notify

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"serotonyl.ru/rewards-bot/internal/metrics"
)

type fakeSender struct {
	sent   []int64
	failOn map[int64]error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	if err := f.failOn[msg.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, msg.ChatID)
	return tgbotapi.Message{}, nil
}

func TestNotifyAllOperators(t *testing.T) {
	s := &fakeSender{}
	if err := NewOperators(s, []int64{1, 2, 3}).Notify("заявка"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(s.sent) != 3 {
		t.Fatalf("sent = %v", s.sent)
	}
}

func TestNotifyContinuesAfterFailure(t *testing.T) {
	blocked := errors.New("Forbidden: bot was blocked by the user")
	s := &fakeSender{failOn: map[int64]error{2: blocked}}
	before := testutil.ToFloat64(metrics.OperatorNotifyFailuresTotal)

	err := NewOperators(s, []int64{1, 2, 3}).Notify("заявка")
	if !errors.Is(err, blocked) {
		t.Fatalf("err = %v, want %v", err, blocked)
	}
	if len(s.sent) != 2 {
		t.Fatalf("sent = %v, want [1 3]", s.sent)
	}
	if got := testutil.ToFloat64(metrics.OperatorNotifyFailuresTotal); got != before+1 {
		t.Fatalf("failures metric = %v, want %v", got, before+1)
	}
}
