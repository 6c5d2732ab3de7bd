package main

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAccounts(t *testing.T) {
	requests, err := parseAccounts("Checking=500, Savings ,Fixed Deposit=20000.50")
	if err != nil {
		t.Fatalf("parseAccounts() error = %v", err)
	}
	want := []accountRequest{
		{accountType: "Checking", openingBalance: decimal.NewFromInt(500)},
		{accountType: "Savings", openingBalance: decimal.Zero},
		{accountType: "Fixed Deposit", openingBalance: decimal.RequireFromString("20000.50")},
	}
	if len(requests) != len(want) {
		t.Fatalf("got %d requests, want %d", len(requests), len(want))
	}
	for i := range want {
		if requests[i].accountType != want[i].accountType || !requests[i].openingBalance.Equal(want[i].openingBalance) {
			t.Errorf("request %d = %+v, want %+v", i, requests[i], want[i])
		}
	}

	for _, bad := range []string{"", " , ", "Checking=abc", "Savings=-1"} {
		if _, err := parseAccounts(bad); err == nil {
			t.Errorf("parseAccounts(%q) expected error", bad)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := validateEmail("john@example.com"); err != nil {
		t.Errorf("validateEmail() error = %v", err)
	}
	for _, bad := range []string{"", "john", "john@", "@example.com"} {
		if err := validateEmail(bad); err == nil {
			t.Errorf("validateEmail(%q) expected error", bad)
		}
	}
	if err := validateName(" J "); err == nil {
		t.Error("validateName expected error for one-letter name")
	}
}
