package yamlutil

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	var s sample
	if err := Unmarshal([]byte("name: svc\nport: 8080\n"), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.Name != "svc" || s.Port != 8080 {
		t.Errorf("Unmarshal() = %+v", s)
	}
}

func TestUnmarshal_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dst     any
		wantErr error
	}{
		{name: "empty data", data: nil, dst: &sample{}, wantErr: ErrNilData},
		{name: "nil destination", data: []byte("a: 1"), dst: nil, wantErr: ErrNilDestination},
		{
			name:    "oversized input",
			data:    []byte("x: " + strings.Repeat("a", MaxInputSize)),
			dst:     &sample{},
			wantErr: ErrInputTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := Unmarshal(tt.data, tt.dst); !errors.Is(err, tt.wantErr) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnmarshalStrict_UnknownField(t *testing.T) {
	t.Parallel()

	var s sample
	err := UnmarshalStrict([]byte("name: x\nbogus: 1\n"), &s)
	if err == nil {
		t.Error("UnmarshalStrict() should reject unknown fields")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	out, err := Marshal(sample{Name: "svc", Port: 9})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back sample
	if err := Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Name != "svc" || back.Port != 9 {
		t.Errorf("round trip = %+v", back)
	}
}
