package main

import (
	"testing"
	"time"
)

func TestInspectionAge(t *testing.T) {
	now := time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC)

	cases := map[string]string{
		"":         "최근점검내역없음",
		"garbage":  "최근점검내역없음",
		"2025-3-6": "최근점검내역없음",
		"20250306": "10일 경과",
		"20250316": "0일 경과",
		"20250401": "0일 경과",
	}
	for equipDt, want := range cases {
		if got := inspectionAge(equipDt, now); got != want {
			t.Errorf("inspectionAge(%q) = %q, want %q", equipDt, got, want)
		}
	}
}
