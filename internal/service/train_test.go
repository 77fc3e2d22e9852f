package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/authctx"
	"github.com/shestoi/railbook/internal/repository"
	"github.com/shestoi/railbook/internal/repository/memory"
	repoMocks "github.com/shestoi/railbook/internal/repository/mocks"
	"github.com/shestoi/railbook/internal/service"
)

var adminIdentity = authctx.Identity{UserID: "admin-1", IsAdmin: true}

func validTrainInput() service.TrainInput {
	return service.TrainInput{
		Name:          "Abuja Night Rider",
		From:          "Abuja",
		To:            "Kaduna",
		DepartureTime: baseTime.Add(24 * time.Hour),
		ArrivalTime:   baseTime.Add(27 * time.Hour),
		BasePrice:     40,
		Seats: []service.SeatInput{
			{Number: "A1", Class: repository.SeatClassEconomy, Price: 40},
			{Number: "F1", Class: repository.SeatClassFirst, Price: 200},
		},
	}
}

func TestTrainService_Create(t *testing.T) {
	ctx := context.Background()
	trains := memory.NewTrainRepository()
	svc := service.NewTrainService(trains, zap.NewNop())

	created, err := svc.Create(ctx, adminIdentity, validTrainInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, repository.TrainStatusScheduled, created.Status)
	require.Len(t, created.Seats, 2)
	require.True(t, created.Seats[0].IsAvailable)

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Abuja Night Rider", stored.Name)

	_, err = svc.Create(ctx, authctx.Identity{UserID: "user-1"}, validTrainInput())
	require.ErrorIs(t, err, service.ErrForbidden)
}

func TestTrainService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *service.TrainInput)
	}{
		{name: "missing name", mutate: func(in *service.TrainInput) { in.Name = " " }},
		{name: "missing from", mutate: func(in *service.TrainInput) { in.From = "" }},
		{name: "missing to", mutate: func(in *service.TrainInput) { in.To = "" }},
		{name: "arrival before departure", mutate: func(in *service.TrainInput) { in.ArrivalTime = in.DepartureTime.Add(-time.Minute) }},
		{name: "negative base price", mutate: func(in *service.TrainInput) { in.BasePrice = -1 }},
		{name: "no seats", mutate: func(in *service.TrainInput) { in.Seats = nil }},
		{name: "duplicate seat", mutate: func(in *service.TrainInput) { in.Seats[1].Number = "A1" }},
		{name: "unknown class", mutate: func(in *service.TrainInput) { in.Seats[0].Class = "sleeper" }},
		{name: "negative seat price", mutate: func(in *service.TrainInput) { in.Seats[0].Price = -5 }},
		{name: "unknown status", mutate: func(in *service.TrainInput) { in.Status = "delayed" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewTrainService(memory.NewTrainRepository(), zap.NewNop())
			in := validTrainInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), adminIdentity, in)
			require.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func heldTrain() repository.Train {
	return repository.Train{
		ID:            "train-9",
		Name:          "Coastal",
		From:          "Lagos",
		To:            "Port Harcourt",
		DepartureTime: baseTime.Add(24 * time.Hour),
		ArrivalTime:   baseTime.Add(30 * time.Hour),
		BasePrice:     60,
		Status:        repository.TrainStatusScheduled,
		Seats: []repository.Seat{
			{Number: "A1", Class: repository.SeatClassEconomy, Price: 60, IsAvailable: false, HeldBy: "booking-1"},
			{Number: "A2", Class: repository.SeatClassEconomy, Price: 60, IsAvailable: true},
		},
	}
}

func TestTrainService_UpdateKeepsHeldSeats(t *testing.T) {
	ctx := context.Background()
	trains := memory.NewTrainRepository(heldTrain())
	svc := service.NewTrainService(trains, zap.NewNop())

	in := validTrainInput()
	in.Seats = []service.SeatInput{
		{Number: "A1", Class: repository.SeatClassEconomy, Price: 75},
		{Number: "A3", Class: repository.SeatClassBusiness, Price: 110},
	}

	_, err := svc.Update(ctx, adminIdentity, "train-9", in)
	require.NoError(t, err)

	stored, err := trains.GetByID(ctx, "train-9")
	require.NoError(t, err)
	require.Len(t, stored.Seats, 2)
	require.Equal(t, "A1", stored.Seats[0].Number)
	require.False(t, stored.Seats[0].IsAvailable)
	require.Equal(t, "booking-1", stored.Seats[0].HeldBy)
	require.Equal(t, 75.0, stored.Seats[0].Price)
	require.True(t, stored.Seats[1].IsAvailable)
	require.Equal(t, "Abuja", stored.From)
}

func TestTrainService_UpdateRejects(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTrainService(memory.NewTrainRepository(heldTrain()), zap.NewNop())

	in := validTrainInput()
	in.Seats = []service.SeatInput{{Number: "A2", Class: repository.SeatClassEconomy, Price: 60}}
	_, err := svc.Update(ctx, adminIdentity, "train-9", in)
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.Update(ctx, adminIdentity, "missing", validTrainInput())
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Update(ctx, authctx.Identity{UserID: "user-1"}, "train-9", validTrainInput())
	require.ErrorIs(t, err, service.ErrForbidden)
}

func TestTrainService_UpdateRetriesOnConflict(t *testing.T) {
	tests := []struct {
		name      string
		conflicts int
		wantErr   error
	}{
		{name: "succeeds after one conflict", conflicts: 1},
		{name: "succeeds on last attempt", conflicts: 2},
		{name: "gives up after three conflicts", conflicts: 3, wantErr: service.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trains := repoMocks.NewTrainRepository(t)
			train := heldTrain()
			train.Seats = train.Seats[1:]
			attempts := tt.conflicts
			if tt.wantErr == nil {
				attempts++
			}

			trains.On("GetByID", mock.Anything, "train-9").Return(train, nil).Times(attempts)
			trains.On("Update", mock.Anything, mock.AnythingOfType("repository.Train")).
				Return(repository.ErrConflict).Times(tt.conflicts)
			if tt.wantErr == nil {
				trains.On("Update", mock.Anything, mock.AnythingOfType("repository.Train")).Return(nil).Once()
			}

			svc := service.NewTrainService(trains, zap.NewNop())
			_, err := svc.Update(context.Background(), adminIdentity, "train-9", validTrainInput())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTrainService_Delete(t *testing.T) {
	ctx := context.Background()
	free := heldTrain()
	free.ID = "train-free"
	free.Seats = free.Seats[1:]
	trains := memory.NewTrainRepository(heldTrain(), free)
	svc := service.NewTrainService(trains, zap.NewNop())

	err := svc.Delete(ctx, adminIdentity, "train-9")
	require.ErrorIs(t, err, service.ErrValidation)

	require.NoError(t, svc.Delete(ctx, adminIdentity, "train-free"))
	_, err = trains.GetByID(ctx, "train-free")
	require.True(t, errors.Is(err, repository.ErrNotFound))

	require.ErrorIs(t, svc.Delete(ctx, adminIdentity, "train-free"), service.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, authctx.Identity{UserID: "u"}, "train-9"), service.ErrForbidden)
}

func TestTrainService_Search(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	trains := memory.NewTrainRepository(
		repository.Train{
			ID: "t1", Name: "Morning", From: "Lagos", To: "Ibadan", BasePrice: 30,
			DepartureTime: day.Add(7 * time.Hour), ArrivalTime: day.Add(9 * time.Hour),
			Seats: []repository.Seat{{Number: "A1", Class: repository.SeatClassEconomy, Price: 30, IsAvailable: true}},
		},
		repository.Train{
			ID: "t2", Name: "Evening", From: "Lagos", To: "Abeokuta", BasePrice: 80,
			DepartureTime: day.Add(19 * time.Hour), ArrivalTime: day.Add(21 * time.Hour),
			Seats: []repository.Seat{{Number: "F1", Class: repository.SeatClassFirst, Price: 80, IsAvailable: true}},
		},
		repository.Train{
			ID: "t3", Name: "Next day", From: "Kano", To: "Ibadan", BasePrice: 50,
			DepartureTime: day.Add(31 * time.Hour), ArrivalTime: day.Add(35 * time.Hour),
			Seats: []repository.Seat{{Number: "F1", Class: repository.SeatClassFirst, Price: 50, IsAvailable: false, HeldBy: "b"}},
		},
	)
	svc := service.NewTrainService(trains, zap.NewNop())
	price := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		in      service.SearchInput
		wantIDs []string
		wantErr error
	}{
		{name: "everything", wantIDs: []string{"t1", "t2", "t3"}},
		{name: "from is case-insensitive", in: service.SearchInput{From: "lagos"}, wantIDs: []string{"t1", "t2"}},
		{name: "to substring", in: service.SearchInput{To: "IBAD"}, wantIDs: []string{"t1", "t3"}},
		{name: "one day window", in: service.SearchInput{Date: "2026-04-01"}, wantIDs: []string{"t1", "t2"}},
		{name: "class needs a free seat", in: service.SearchInput{Class: "first"}, wantIDs: []string{"t2"}},
		{name: "class all disables filter", in: service.SearchInput{Class: "all"}, wantIDs: []string{"t1", "t2", "t3"}},
		{name: "price range", in: service.SearchInput{MinPrice: price(40), MaxPrice: price(60)}, wantIDs: []string{"t3"}},
		{name: "bad date", in: service.SearchInput{Date: "01/04/2026"}, wantErr: service.ErrValidation},
		{name: "bad class", in: service.SearchInput{Class: "sleeper"}, wantErr: service.ErrValidation},
		{name: "inverted price range", in: service.SearchInput{MinPrice: price(90), MaxPrice: price(10)}, wantErr: service.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, tr := range got {
				ids = append(ids, tr.ID)
			}
			require.Equal(t, tt.wantIDs, ids)
		})
	}
}
