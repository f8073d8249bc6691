package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"example.com/ai-tour-quote/backend/internal/itinerary"
)

type scriptedClient struct {
	replies []string
	errs    []error
	calls   int
	last    []Message
}

func (c *scriptedClient) Chat(_ context.Context, messages []Message) (string, []byte, error) {
	i := c.calls
	c.calls++
	c.last = messages

	var err error
	if i < len(c.errs) {
		err = c.errs[i]
	}
	reply := ""
	if i < len(c.replies) {
		reply = c.replies[i]
	}
	return reply, []byte(reply), err
}

func newTestService(client Client, retries int) *Service {
	service := NewService(client, nil, retries)
	service.backoff = 0
	return service
}

// TestExtractItineraryNormalizesDays проверяет разбор ответа в блоке кода и нормализацию колонок.
func TestExtractItineraryNormalizesDays(t *testing.T) {
	client := &scriptedClient{replies: []string{"```json\n" + `{"days":[
		{"day":"D1","city":"巴黎","lunch":"六菜一湯","ticket":"羅浮宮 + 塞納河遊船","hotel":"Ibis"},
		{"天數":"D2","城市":"里昂","晚餐":"自理","extra":"ignored"}
	]}` + "\n```"}}

	extraction, prompt, _, err := newTestService(client, 1).ExtractItinerary(context.Background(), ExtractInput{DocumentText: "第一天 巴黎"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(prompt, "第一天 巴黎") {
		t.Fatal("expected prompt to carry the document text")
	}
	if len(extraction.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(extraction.Lines))
	}

	first := extraction.Lines[0]
	if first.DayLabel != "D1" || first.DayPoint != "巴黎" || first.Ticket != "羅浮宮 + 塞納河遊船" {
		t.Fatalf("unexpected first line: %+v", first)
	}
	if !first.IncludeLunch || first.IncludeDinner {
		t.Fatalf("expected flags to follow cell text, got lunch=%v dinner=%v", first.IncludeLunch, first.IncludeDinner)
	}

	record := extraction.Records[1]
	if len(record) != len(itinerary.Columns) {
		t.Fatalf("expected %d columns, got %d", len(itinerary.Columns), len(record))
	}
	if record[itinerary.ColumnDinner] != "自理" {
		t.Fatalf("expected dinner 自理, got %q", record[itinerary.ColumnDinner])
	}
}

// TestExtractItineraryAcceptsArray проверяет ответ в виде массива дней.
func TestExtractItineraryAcceptsArray(t *testing.T) {
	client := &scriptedClient{replies: []string{`[{"天數":"D1","午餐":"米其林"}]`}}

	extraction, _, _, err := newTestService(client, 1).ExtractItinerary(context.Background(), ExtractInput{DocumentText: "D1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(extraction.Lines) != 1 || extraction.Lines[0].Lunch != "米其林" {
		t.Fatalf("unexpected lines: %+v", extraction.Lines)
	}
}

// TestExtractItineraryRetries проверяет повтор после ошибки провайдера.
func TestExtractItineraryRetries(t *testing.T) {
	client := &scriptedClient{
		replies: []string{"", `{"days":[{"天數":"D1"}]}`},
		errs:    []error{errors.New("upstream timeout")},
	}

	if _, _, _, err := newTestService(client, 3).ExtractItinerary(context.Background(), ExtractInput{DocumentText: "D1"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

// TestExtractItineraryGivesUp проверяет ошибку после исчерпания попыток.
func TestExtractItineraryGivesUp(t *testing.T) {
	failure := errors.New("upstream down")
	client := &scriptedClient{errs: []error{failure, failure}}

	_, _, _, err := newTestService(client, 2).ExtractItinerary(context.Background(), ExtractInput{DocumentText: "D1"})
	if !errors.Is(err, failure) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

// TestExtractItineraryNoDays проверяет, что пустой ответ не повторяется.
func TestExtractItineraryNoDays(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"days":[]}`, `{"days":[]}`}}

	_, _, _, err := newTestService(client, 3).ExtractItinerary(context.Background(), ExtractInput{DocumentText: "D1"})
	if !errors.Is(err, ErrNoItinerary) {
		t.Fatalf("expected ErrNoItinerary, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 call, got %d", client.calls)
	}
}

// TestExtractItineraryEmptyDocument проверяет отказ без обращения к модели.
func TestExtractItineraryEmptyDocument(t *testing.T) {
	client := &scriptedClient{}

	_, _, _, err := newTestService(client, 1).ExtractItinerary(context.Background(), ExtractInput{DocumentText: "   "})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no calls, got %d", client.calls)
	}
}

// TestExtractJSON проверяет вырезание JSON из ответа с лишним текстом.
func TestExtractJSON(t *testing.T) {
	if got := extractJSON(`Here you go: {"days":[]} thanks`); got != `{"days":[]}` {
		t.Fatalf("unexpected payload %q", got)
	}
	if got := extractJSON("no json here"); got != "" {
		t.Fatalf("expected empty payload, got %q", got)
	}
}
