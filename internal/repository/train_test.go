package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testTrain() Train {
	return Train{
		ID:            "t-1",
		From:          "Lagos",
		To:            "Ibadan",
		DepartureTime: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		BasePrice:     50,
		Seats: []Seat{
			{Number: "A1", Class: SeatClassEconomy, Price: 50, IsAvailable: true},
			{Number: "A2", Class: SeatClassEconomy, Price: 50, IsAvailable: true},
			{Number: "B1", Class: SeatClassBusiness, Price: 120, IsAvailable: false, HeldBy: "other"},
		},
	}
}

func TestTrain_CheckAvailability(t *testing.T) {
	tests := []struct {
		name            string
		numbers         []string
		wantResolved    []string
		wantUnavailable []string
	}{
		{name: "all free", numbers: []string{"A2", "A1"}, wantResolved: []string{"A2", "A1"}},
		{name: "held seat", numbers: []string{"A1", "B1"}, wantResolved: []string{"A1"}, wantUnavailable: []string{"B1"}},
		{name: "unknown seat", numbers: []string{"Z9"}, wantUnavailable: []string{"Z9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, unavailable := testTrain().CheckAvailability(tt.numbers)

			var got []string
			for _, s := range resolved {
				got = append(got, s.Number)
			}
			require.Equal(t, tt.wantResolved, got)
			require.Equal(t, tt.wantUnavailable, unavailable)
		})
	}
}

func TestTrain_HoldThenCheckReportsNoneAvailable(t *testing.T) {
	train := testTrain()
	seats := []string{"A1", "A2"}

	_, unavailable := train.CheckAvailability(seats)
	require.Empty(t, unavailable)

	require.Empty(t, train.HoldSeats("booking-1", seats))

	resolved, unavailable := train.CheckAvailability(seats)
	require.Empty(t, resolved)
	require.Equal(t, seats, unavailable)
}

func TestTrain_HoldSeats(t *testing.T) {
	t.Run("all or nothing", func(t *testing.T) {
		train := testTrain()

		unavailable := train.HoldSeats("booking-1", []string{"A1", "B1", "Z9"})

		require.Equal(t, []string{"B1", "Z9"}, unavailable)
		require.True(t, train.Seats[0].IsAvailable)
		require.Empty(t, train.Seats[0].HeldBy)
	})

	t.Run("same holder is a no-op", func(t *testing.T) {
		train := testTrain()
		require.Empty(t, train.HoldSeats("booking-1", []string{"A1"}))
		require.Empty(t, train.HoldSeats("booking-1", []string{"A1"}))
		require.Equal(t, "booking-1", train.Seats[0].HeldBy)
	})

	t.Run("other holder is refused", func(t *testing.T) {
		train := testTrain()
		require.Empty(t, train.HoldSeats("booking-1", []string{"A1"}))
		require.Equal(t, []string{"A1"}, train.HoldSeats("booking-2", []string{"A1"}))
	})
}

func TestTrain_ReleaseSeatsIsIdempotent(t *testing.T) {
	train := testTrain()
	require.Empty(t, train.HoldSeats("booking-1", []string{"A1", "A2"}))

	require.Equal(t, 2, train.ReleaseSeats("booking-1", []string{"A1", "A2"}))
	once := append([]Seat(nil), train.Seats...)

	require.Equal(t, 0, train.ReleaseSeats("booking-1", []string{"A1", "A2"}))
	require.Equal(t, once, train.Seats)
}

func TestTrain_ReleaseSeatsLeavesOtherHolders(t *testing.T) {
	train := testTrain()

	require.Equal(t, 0, train.ReleaseSeats("booking-1", []string{"B1"}))
	require.False(t, train.Seats[2].IsAvailable)
	require.Equal(t, "other", train.Seats[2].HeldBy)
}

func TestTrainFilter_Match(t *testing.T) {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	price := func(v float64) *float64 { return &v }

	tests := []struct {
		name   string
		filter TrainFilter
		want   bool
	}{
		{name: "empty", want: true},
		{name: "from substring any case", filter: TrainFilter{From: "lag"}, want: true},
		{name: "to mismatch", filter: TrainFilter{To: "Abuja"}, want: false},
		{name: "same day", filter: TrainFilter{DepartsAfter: day, DepartsBefore: day.Add(24 * time.Hour)}, want: true},
		{name: "next day", filter: TrainFilter{DepartsAfter: day.Add(24 * time.Hour)}, want: false},
		{name: "class with free seat", filter: TrainFilter{Class: SeatClassEconomy}, want: true},
		{name: "class without free seat", filter: TrainFilter{Class: SeatClassBusiness}, want: false},
		{name: "price range", filter: TrainFilter{MinPrice: price(40), MaxPrice: price(60)}, want: true},
		{name: "below min price", filter: TrainFilter{MinPrice: price(60)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.Match(testTrain()))
		})
	}
}
