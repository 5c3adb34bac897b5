package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber(t *testing.T) {
	at := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		counter string
		seq     int64
		want    string
	}{
		{name: "voucher", counter: "VOUCHER", seq: 1, want: "FV-2026-00001"},
		{name: "voucher large", counter: "VOUCHER", seq: 12345, want: "FV-2026-12345"},
		{name: "voucher overflow pad", counter: "VOUCHER", seq: 123456, want: "FV-2026-123456"},
		{name: "receipt", counter: "RECEIPT", seq: 42, want: "RC-2026-000042"},
		{name: "salary", counter: "SALARY", seq: 7, want: "SAL-2026-00007"},
		{name: "lowercase counter", counter: "voucher", seq: 9, want: "FV-2026-00009"},
		{name: "unknown counter falls back", counter: "EXPENSE", seq: 3, want: "DOC-2026-000003"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Number(tc.counter, at, tc.seq)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNumberRejectsNonPositiveSequence(t *testing.T) {
	at := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	for _, seq := range []int64{0, -1} {
		_, err := Number("VOUCHER", at, seq)
		assert.Error(t, err, "seq %d", seq)
	}
}

func TestNumberIsDeterministic(t *testing.T) {
	at := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)

	first, err := Number("RECEIPT", at, 99)
	require.NoError(t, err)
	second, err := Number("RECEIPT", at, 99)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
