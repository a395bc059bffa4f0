package domain

import (
	"regexp"
	"testing"
)

func TestNewWorkerIdentity(t *testing.T) {
	tests := []struct {
		host     string
		service  string
		ordinal  int
		expected WorkerIdentity
	}{
		{"node1", "engrafo", 1, "node1:engrafo:01"},
		{"node1", "engrafo", 9, "node1:engrafo:09"},
		{"node1", "engrafo", 10, "node1:engrafo:10"},
		{"node1", "echo_service", 123, "node1:echo_service:123"},
		{"", "tex_to_html", 2, "unknown:tex_to_html:02"},
		{"  ", "tex_to_html", 3, "unknown:tex_to_html:03"},
	}

	for _, tt := range tests {
		got := NewWorkerIdentity(tt.host, tt.service, tt.ordinal)
		if got != tt.expected {
			t.Errorf("NewWorkerIdentity(%q, %q, %d) = %q, expected %q",
				tt.host, tt.service, tt.ordinal, got, tt.expected)
		}
	}
}

func TestWorkerIdentity_Pattern(t *testing.T) {
	pattern := regexp.MustCompile(`^[^:]+:[^:]+:\d{2,}$`)

	for i := 1; i <= 12; i++ {
		id := NewWorkerIdentity("host", "svc", i)
		if !pattern.MatchString(id.String()) {
			t.Errorf("identity %q does not match pattern", id)
		}
	}
}

func TestOutcome_NeedsCooldown(t *testing.T) {
	if OutcomeDelivered.NeedsCooldown() {
		t.Error("delivered task should not trigger cooldown")
	}
	if !OutcomeEmptyInput.NeedsCooldown() {
		t.Error("empty input should trigger cooldown")
	}
	if !OutcomeConversionFailed.NeedsCooldown() {
		t.Error("conversion failure should trigger cooldown")
	}
	if Outcome("").NeedsCooldown() {
		t.Error("unfinished task should not trigger cooldown")
	}
}

func TestTask_Lifecycle(t *testing.T) {
	task := NewTask("42", "echo_service")

	if task.State != TaskStateReceivingInput {
		t.Errorf("expected RECEIVING_INPUT, got %s", task.State)
	}
	if !task.IsEmpty() {
		t.Error("new task should have empty input")
	}

	task.InputSize = 10
	task.MarkConverting()
	task.MarkDelivering()
	task.MarkDelivered(10)

	if task.Outcome != OutcomeDelivered {
		t.Errorf("expected DELIVERED, got %s", task.Outcome)
	}
	if task.NeedsCooldown() {
		t.Error("delivered task should not need cooldown")
	}
	if task.FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}
}

func TestTask_MarkFailed(t *testing.T) {
	task := NewTask("7", "engrafo")
	task.InputSize = 100
	task.MarkConverting()
	task.MarkFailed("docker: not found")
	task.MarkReportingEmpty()
	task.Finish()

	if task.Outcome != OutcomeConversionFailed {
		t.Errorf("expected CONVERSION_FAILED, got %s", task.Outcome)
	}
	if task.Error != "docker: not found" {
		t.Errorf("unexpected error text: %q", task.Error)
	}
	if !task.NeedsCooldown() {
		t.Error("failed task should need cooldown")
	}
	if task.Duration() < 0 {
		t.Error("duration should not be negative")
	}
}
