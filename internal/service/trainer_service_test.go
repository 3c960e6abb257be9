package service

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func (f *trainerFixture) wholeExperience(t *testing.T, trainerID string) float64 {
	t.Helper()
	tr, err := f.trainers.GetByID(context.Background(), trainerID)
	require.NoError(t, err)
	return tr.WholeExperience
}

func TestExperienceService_Recalculate(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture()
	f.experienceSvc.now = func() time.Time { return day(2024, 1, 1) }
	alice, bob := f.member(t, true), f.member(t, true)

	past, err := f.experienceSvc.Create(ctx, alice.user.ID, ExperienceInput{
		CompanyName: "World Class",
		Position:    "Тренер",
		StartDate:   day(2020, 1, 1),
		EndDate:     ptr(day(2022, 1, 1)),
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, f.wholeExperience(t, alice.trainer.ID))

	_, err = f.experienceSvc.Create(ctx, alice.user.ID, ExperienceInput{
		CompanyName: "Fitness House",
		Position:    "Старший тренер",
		StartDate:   day(2023, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.wholeExperience(t, alice.trainer.ID), "an open experience runs until today")

	f.experienceSvc.now = func() time.Time { return day(2025, 1, 1) }
	n, err := f.experienceSvc.RecalculateOngoing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4.0, f.wholeExperience(t, alice.trainer.ID))

	_, err = f.experienceSvc.Update(ctx, bob.user.ID, past.ID, ExperienceInput{
		CompanyName: "X", Position: "Y", StartDate: day(2020, 1, 1),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.experienceSvc.Delete(ctx, alice.user.ID, past.ID))
	assert.Equal(t, 2.0, f.wholeExperience(t, alice.trainer.ID))
	assert.Zero(t, f.wholeExperience(t, bob.trainer.ID))
}

func TestExperienceService_Validation(t *testing.T) {
	f := newTrainerFixture()
	alice := f.member(t, true)

	tests := []struct {
		name  string
		in    ExperienceInput
		field string
	}{
		{"company", ExperienceInput{Position: "Тренер", StartDate: day(2020, 1, 1)}, "company_name"},
		{"position", ExperienceInput{CompanyName: "Gym", StartDate: day(2020, 1, 1)}, "position"},
		{"start", ExperienceInput{CompanyName: "Gym", Position: "Тренер"}, "start_date"},
		{"end before start", ExperienceInput{
			CompanyName: "Gym", Position: "Тренер", StartDate: day(2020, 1, 1), EndDate: ptr(day(2019, 1, 1)),
		}, "end_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.experienceSvc.Create(context.Background(), alice.user.ID, tt.in)
			v, ok := domain.IsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, v.Fields, tt.field)
		})
	}
	assert.Empty(t, f.experiences.items)
}

func TestSessionService_Booking(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture()
	coach, anna, boris := f.member(t, true), f.member(t, false), f.member(t, false)
	f.link(t, anna, coach)
	f.link(t, boris, coach)
	monday := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

	_, err := f.sessionSvc.Create(ctx, f.member(t, false).user.ID, SessionInput{TrainerID: coach.trainer.ID, Start: monday, Duration: 60})
	assert.ErrorIs(t, err, domain.ErrTrainerLinkMissing, "clients book only trainers they are linked to")

	first, err := f.sessionSvc.Create(ctx, anna.user.ID, SessionInput{TrainerID: coach.trainer.ID, Start: monday, Duration: 60})
	require.NoError(t, err)
	assert.Equal(t, anna.client.ID, first.ClientID)

	second, err := f.sessionSvc.Create(ctx, coach.user.ID, SessionInput{ClientID: boris.client.ID, Start: monday.Add(time.Hour), Duration: 60})
	require.NoError(t, err, "back to back sessions do not overlap")
	assert.Equal(t, coach.trainer.ID, second.TrainerID)

	tests := []struct {
		name     string
		start    time.Time
		duration int
		want     error
	}{
		{"overlaps the next session", monday.Add(30 * time.Minute), 60, domain.ErrSessionOverlap},
		{"overlaps only itself", monday.Add(-30 * time.Minute), 90, nil},
		{"back in its own slot", monday, 60, nil},
		{"spans both", monday, 120, domain.ErrSessionOverlap},
		{"crosses midnight", monday.Add(13*time.Hour + 30*time.Minute), 60, domain.ErrTrainerUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sessionSvc.Reschedule(ctx, anna.user.ID, first.ID, tt.start, tt.duration)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("duration rules", func(t *testing.T) {
		_, err := f.sessionSvc.Reschedule(ctx, anna.user.ID, first.ID, monday.Add(-2*time.Hour), 45)
		v, ok := domain.IsValidation(err)
		require.True(t, ok, "got %v", err)
		assert.Len(t, v.Fields["duration"], 2)
	})

	t.Run("strangers can not see it", func(t *testing.T) {
		_, err := f.sessionSvc.Get(ctx, boris.user.ID, first.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("non trainers can not book clients", func(t *testing.T) {
		_, err := f.sessionSvc.Create(ctx, boris.user.ID, SessionInput{ClientID: anna.client.ID, Start: monday, Duration: 60})
		_, ok := domain.IsValidation(err)
		assert.True(t, ok, "got %v", err)
	})

	sessions, err := f.sessionSvc.List(ctx, coach.user.ID, monday.Add(-24*time.Hour), monday.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Start.Before(sessions[1].Start))

	require.NoError(t, f.sessionSvc.Cancel(ctx, coach.user.ID, first.ID))
	_, err = f.sessionSvc.Get(ctx, anna.user.ID, first.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionService_TrainerSchedule(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture()
	coach, anna := f.member(t, true), f.member(t, false)
	f.link(t, anna, coach)
	monday := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

	_, err := f.trainerSvc.SetWorkHours(ctx, coach.user.ID, domain.TimeRange{Start: "09:00", End: "18:00"})
	require.NoError(t, err)
	_, err = f.trainerSvc.SetWeekends(ctx, coach.user.ID, []domain.Weekday{6, 5, 6})
	require.NoError(t, err)
	_, err = f.trainerSvc.AddBreak(ctx, coach.user.ID, domain.TimeRange{Start: "13:00", End: "14:00"})
	require.NoError(t, err)
	_, err = f.trainerSvc.AddHoliday(ctx, coach.user.ID, domain.Holiday{StartDate: day(2030, 1, 14), EndDate: day(2030, 1, 20)})
	require.NoError(t, err)

	tests := []struct {
		name  string
		start time.Time
		want  error
	}{
		{"inside work hours", monday, nil},
		{"before opening", monday.Add(-2 * time.Hour), domain.ErrTrainerUnavailable},
		{"during the break", monday.Add(3 * time.Hour), domain.ErrTrainerUnavailable},
		{"on a weekend", monday.Add(5 * 24 * time.Hour), domain.ErrTrainerUnavailable},
		{"on holiday", monday.Add(7 * 24 * time.Hour), domain.ErrTrainerUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sessionSvc.Create(ctx, anna.user.ID, SessionInput{TrainerID: coach.trainer.ID, Start: tt.start, Duration: 60})
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTrainerService_Profile(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture()
	coach, anna := f.member(t, true), f.member(t, false)

	updated, err := f.trainerSvc.UpdateProfile(ctx, coach.user.ID, ProfileInput{
		Description:  ptr("  Функциональный тренинг  "),
		PricePerHour: ptr(2500.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Функциональный тренинг", updated.Description)
	assert.Equal(t, domain.DefaultMinimumWorkoutDuration, updated.MinimumWorkoutDuration, "nil fields are left alone")

	_, err = f.trainerSvc.UpdateProfile(ctx, coach.user.ID, ProfileInput{
		PricePerHour:           ptr(-1.0),
		MinimumWorkoutDuration: ptr(0),
	})
	v, ok := domain.IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, v.Fields, "price_per_hour")
	assert.Contains(t, v.Fields, "minimum_workout_duration")

	profile, err := f.trainerSvc.Get(ctx, anna.user.ID, coach.trainer.ID)
	require.NoError(t, err)
	assert.Equal(t, coach.user.FirstName, profile.FirstName)

	_, err = f.trainerSvc.Get(ctx, coach.user.ID, anna.trainer.ID)
	assert.ErrorIs(t, err, domain.ErrTrainerNotVisible, "inactive trainer profiles are hidden")
	_, err = f.trainerSvc.Get(ctx, anna.user.ID, anna.trainer.ID)
	assert.NoError(t, err, "owners always see their profile")

	_, err = f.trainerSvc.UpdateProfile(ctx, coach.user.ID, ProfileInput{IsPublic: ptr(false)})
	require.NoError(t, err)
	_, err = f.trainerSvc.GetWorkHours(ctx, anna.user.ID, coach.trainer.ID)
	assert.ErrorIs(t, err, domain.ErrTrainerNotVisible)
}

func TestTrainerService_Schedule(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture()
	coach := f.member(t, true)

	trainer, err := f.trainerSvc.SetWeekends(ctx, coach.user.ID, []domain.Weekday{6, 0, 6, 5})
	require.NoError(t, err)
	assert.Equal(t, []domain.Weekday{0, 5, 6}, trainer.Weekends)

	_, err = f.trainerSvc.SetWeekends(ctx, coach.user.ID, []domain.Weekday{7})
	_, ok := domain.IsValidation(err)
	assert.True(t, ok)

	_, err = f.trainerSvc.SetWorkHours(ctx, coach.user.ID, domain.TimeRange{Start: "18:00", End: "09:00"})
	_, ok = domain.IsValidation(err)
	assert.True(t, ok)

	b, err := f.trainerSvc.AddBreak(ctx, coach.user.ID, domain.TimeRange{Start: "13:00", End: "14:00"})
	require.NoError(t, err)
	require.NoError(t, f.trainerSvc.RemoveBreak(ctx, coach.user.ID, b.ID))
	assert.ErrorIs(t, f.trainerSvc.RemoveBreak(ctx, coach.user.ID, b.ID), domain.ErrBreakNotFound)

	_, err = f.trainerSvc.AddHoliday(ctx, coach.user.ID, domain.Holiday{StartDate: day(2030, 2, 1), EndDate: day(2030, 1, 1)})
	_, ok = domain.IsValidation(err)
	assert.True(t, ok)
	h, err := f.trainerSvc.AddHoliday(ctx, coach.user.ID, domain.Holiday{StartDate: day(2030, 1, 1), EndDate: day(2030, 1, 10)})
	require.NoError(t, err)
	require.NoError(t, f.trainerSvc.RemoveHoliday(ctx, coach.user.ID, h.ID))
	assert.ErrorIs(t, f.trainerSvc.RemoveHoliday(ctx, coach.user.ID, h.ID), domain.ErrHolidayNotFound)

	hours, err := f.trainerSvc.GetWorkHours(ctx, "", coach.trainer.ID)
	require.NoError(t, err)
	assert.Empty(t, hours.Breaks)
	assert.Empty(t, hours.Holidays)
}

func TestTrainerService_Search(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture()
	cheap, pricey := f.member(t, true), f.member(t, true)
	f.member(t, false)

	_, err := f.trainerSvc.UpdateProfile(ctx, cheap.user.ID, ProfileInput{Description: ptr("Йога и растяжка"), PricePerHour: ptr(1000.0)})
	require.NoError(t, err)
	_, err = f.trainerSvc.UpdateProfile(ctx, pricey.user.ID, ProfileInput{Description: ptr("Бодибилдинг"), PricePerHour: ptr(5000.0)})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SearchInput
		want []string
	}{
		{"everyone active", SearchInput{}, []string{cheap.trainer.ID, pricey.trainer.ID}},
		{"by price", SearchInput{Filter: domain.TrainerFilter{MaxPricePerHour: ptr(2000.0)}}, []string{cheap.trainer.ID}},
		{"by description", SearchInput{Query: "бодибилдинг"}, []string{pricey.trainer.ID}},
		{"no match", SearchInput{Query: "плавание"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.trainerSvc.Search(ctx, tt.in)
			require.NoError(t, err)
			var ids []string
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	_, err = f.trainerSvc.Search(ctx, SearchInput{Filter: domain.TrainerFilter{MinPricePerHour: ptr(10.0), MaxPricePerHour: ptr(5.0)}})
	_, ok := domain.IsValidation(err)
	assert.True(t, ok)
}

func TestGymService(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture()
	coach, other := f.member(t, true), f.member(t, true)

	tests := []struct {
		name  string
		in    GymInput
		field string
	}{
		{"name", GymInput{Address: "Тверская 1", Latitude: ptr(55.7), Longitude: ptr(37.6)}, "name"},
		{"latitude missing", GymInput{Name: "Gym", Address: "Тверская 1", Longitude: ptr(37.6)}, "latitude"},
		{"latitude range", GymInput{Name: "Gym", Address: "Тверская 1", Latitude: ptr(91.0), Longitude: ptr(37.6)}, "latitude"},
		{"longitude range", GymInput{Name: "Gym", Address: "Тверская 1", Latitude: ptr(55.7), Longitude: ptr(-181.0)}, "longitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.gymSvc.Create(ctx, coach.user.ID, tt.in)
			v, ok := domain.IsValidation(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, v.Fields, tt.field)
		})
	}

	valid := GymInput{Name: " Gold's Gym ", Address: "Тверская 1", Latitude: ptr(55.7), Longitude: ptr(37.6)}
	gym, err := f.gymSvc.Create(ctx, coach.user.ID, valid)
	require.NoError(t, err)
	assert.Equal(t, "Gold's Gym", gym.Name)
	assert.Equal(t, coach.trainer.ID, gym.TrainerID)

	_, err = f.gymSvc.Update(ctx, other.user.ID, gym.ID, valid)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.gymSvc.Delete(ctx, other.user.ID, gym.ID), domain.ErrForbidden)

	gyms, err := f.gymSvc.ListForTrainer(ctx, other.user.ID, coach.trainer.ID)
	require.NoError(t, err)
	assert.Len(t, gyms, 1)

	require.NoError(t, f.gymSvc.Delete(ctx, coach.user.ID, gym.ID))
	_, err = f.gymSvc.Get(ctx, gym.ID)
	assert.ErrorIs(t, err, domain.ErrGymNotFound)
}

func TestClientService(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture()
	anna, coach, yoga, idle := f.member(t, false), f.member(t, true), f.member(t, true), f.member(t, false)

	tests := []struct {
		name      string
		userID    string
		trainerID string
		want      error
	}{
		{"inactive trainer", anna.user.ID, idle.trainer.ID, domain.ErrTrainerNotFound},
		{"unknown trainer", anna.user.ID, "trainer-404", domain.ErrTrainerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.clientSvc.AddTrainer(ctx, tt.userID, tt.trainerID, false, false)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.clientSvc.AddTrainer(ctx, coach.user.ID, coach.trainer.ID, false, false)
	_, ok := domain.IsValidation(err)
	assert.True(t, ok, "trainers can not add themselves")

	first, err := f.clientSvc.AddTrainer(ctx, anna.user.ID, coach.trainer.ID, false, true)
	require.NoError(t, err)
	assert.True(t, first.FoundByLink)
	_, err = f.clientSvc.AddTrainer(ctx, anna.user.ID, coach.trainer.ID, false, false)
	assert.ErrorIs(t, err, domain.ErrTrainerLinkExists)

	second, err := f.clientSvc.AddTrainer(ctx, anna.user.ID, yoga.trainer.ID, false, false)
	require.NoError(t, err)
	fav, err := f.clientSvc.SetFavourite(ctx, anna.user.ID, second.ID, true)
	require.NoError(t, err)
	assert.True(t, fav.Favourite)

	links, err := f.clientSvc.ListTrainers(ctx, anna.user.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, second.ID, links[0].ID, "favourites come first")

	clients, err := f.clientSvc.ListClients(ctx, coach.user.ID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, anna.user.FirstName, clients[0].FirstName)
	assert.Equal(t, anna.client.ID, clients[0].ClientID)

	assert.ErrorIs(t, f.clientSvc.RemoveTrainer(ctx, idle.user.ID, first.ID), domain.ErrTrainerLinkMissing)
	require.NoError(t, f.clientSvc.RemoveTrainer(ctx, anna.user.ID, first.ID))
	clients, err = f.clientSvc.ListClients(ctx, coach.user.ID)
	require.NoError(t, err)
	assert.Empty(t, clients)
}
