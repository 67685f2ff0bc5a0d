package errors

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrRuntime, "boom"), "[RUNTIME] boom"},
		{ConfigSectionError("babystep"), "[CONFIG_SECTION:babystep] section 'babystep' not found"},
		{ConfigValidationError("babystep", "max_chunk", "must be above 0"),
			"[CONFIG_VALIDATION:babystep.max_chunk] option 'max_chunk' in section 'babystep': must be above 0"},
		{ActuatorError(0.5, io.EOF), "[ACTUATOR] apply delta 0.500 failed: EOF"},
		{TransportReplyError("M500", "Error:EEPROM disabled"),
			"[TRANSPORT_REPLY] command 'M500' rejected: Error:EEPROM disabled"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestIsFollowsWrapping(t *testing.T) {
	base := ParamWriteError("nozzle_offset", "Z", -1.2, io.ErrClosedPipe)
	wrapped := fmt.Errorf("save: %w", base)

	if !Is(wrapped, ErrParamWrite) {
		t.Error("expected wrapped error to match ErrParamWrite")
	}
	if !IsParam(wrapped) {
		t.Error("expected IsParam")
	}
	if IsTransport(wrapped) || IsConfig(wrapped) {
		t.Error("unexpected category match")
	}
	if Is(io.EOF, ErrRuntime) {
		t.Error("plain errors carry no code")
	}
	if base.Unwrap() != io.ErrClosedPipe {
		t.Error("expected underlying error")
	}
}

func TestContext(t *testing.T) {
	err := ParamReadError("nozzle_offset", "Z", io.EOF)
	if err.Context["param"] != "nozzle_offset" || err.Context["axis"] != "Z" {
		t.Errorf("unexpected context %v", err.Context)
	}
	if !strings.Contains(err.Error(), "read nozzle_offset[Z] failed") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsTransport(TransportError("open /dev/ttyUSB0", io.EOF)) {
		t.Error("expected transport error")
	}
}
