package service

import (
	"context"
	"errors"
	"testing"

	"github.com/heartspace/web-gateway/internal/core/domain"
)

func constAttempt(name string, env domain.Envelope[int], err error, calls *[]string) Attempt[int] {
	return Attempt[int]{
		Name: name,
		Fetch: func(context.Context) (domain.Envelope[int], error) {
			*calls = append(*calls, name)
			return env, err
		},
	}
}

func TestRunChain_FirstAcceptedWins(t *testing.T) {
	var calls []string
	positive := func(env domain.Envelope[int]) bool { return env.Data > 0 }

	a := constAttempt("a", domain.Envelope[int]{}, errors.New("down"), &calls)
	b := constAttempt("b", domain.Ok(0), nil, &calls)
	b.Accept = positive
	c := constAttempt("c", domain.Ok(7), nil, &calls)
	c.Accept = positive
	d := constAttempt("d", domain.Ok(9), nil, &calls)

	env, ok := RunChain(context.Background(), "test", []Attempt[int]{a, b, c, d}, discardLogger)
	if !ok || env.Data != 7 {
		t.Fatalf("expected 7, got %+v ok=%v", env, ok)
	}
	if len(calls) != 3 || calls[2] != "c" {
		t.Errorf("expected a,b,c in order, got %v", calls)
	}
}

func TestRunChain_SkipAndExhaust(t *testing.T) {
	var calls []string
	skipped := constAttempt("skipped", domain.Ok(1), nil, &calls)
	skipped.Skip = true
	failing := constAttempt("failing", domain.Envelope[int]{}, errors.New("down"), &calls)

	_, ok := RunChain(context.Background(), "test", []Attempt[int]{skipped, failing}, discardLogger)
	if ok {
		t.Error("expected exhaustion")
	}
	if len(calls) != 1 || calls[0] != "failing" {
		t.Errorf("skipped attempt must not run, got %v", calls)
	}
}

func TestRunChain_StopsOnCancel(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := RunChain(ctx, "test", []Attempt[int]{constAttempt("a", domain.Ok(1), nil, &calls)}, discardLogger)
	if ok || len(calls) != 0 {
		t.Errorf("cancelled chain must not run attempts, got %v ok=%v", calls, ok)
	}
}

func TestDecodeList_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr error
	}{
		{"array", `[1,2,3]`, 3, nil},
		{"empty array", `[]`, 0, nil},
		{"string encoded", `"[4,5]"`, 2, nil},
		{"items wrapper", `{"items":[1],"total":1}`, 1, nil},
		{"null", `null`, 0, errEmptyPayload},
		{"object", `{"id":1}`, 0, errNotAList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList[int]([]byte(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || len(got) != tt.wantLen {
				t.Errorf("expected %d items, got %v", tt.wantLen, got)
			}
		})
	}
}
