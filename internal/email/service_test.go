package email

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{
			name:     "empty config",
			config:   Config{},
			expected: false,
		},
		{
			name: "missing host",
			config: Config{
				Port: "587",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing port",
			config: Config{
				Host: "smtp.example.com",
				From: "test@example.com",
			},
			expected: false,
		},
		{
			name: "missing from",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
			},
			expected: false,
		},
		{
			name: "fully configured",
			config: Config{
				Host: "smtp.example.com",
				Port: "587",
				From: "test@example.com",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if svc.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", svc.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestRenderProposalTemplate(t *testing.T) {
	data := ProposalData{
		AppName:      "Feeflow",
		ContactName:  "Greta Lang",
		ProposalName: "Coastal Tower Fee Proposal",
		Number:       "25-97105-FP",
		Rev:          2,
		StaffName:    "Martin Robert",
	}

	html, err := renderTemplate(proposalEmailTemplate, data)
	if err != nil {
		t.Fatalf("renderTemplate failed: %v", err)
	}

	if !strings.Contains(html, "Greta Lang") {
		t.Error("template should contain contact name")
	}
	if !strings.Contains(html, "25-97105-FP") {
		t.Error("template should contain proposal number")
	}
	if !strings.Contains(html, "Coastal Tower Fee Proposal") {
		t.Error("template should contain proposal name")
	}
	if !strings.Contains(html, "Martin Robert") {
		t.Error("template should contain staff name")
	}
}

func TestSendRequiresConfiguration(t *testing.T) {
	svc := NewService(Config{})
	if err := svc.SendEmail([]string{"a@example.com"}, "s", "b"); err == nil {
		t.Error("SendEmail should fail when unconfigured")
	}
	if err := svc.SendProposal("a@example.com", ProposalData{}, nil, ""); err == nil {
		t.Error("SendProposal should fail when unconfigured")
	}
}
