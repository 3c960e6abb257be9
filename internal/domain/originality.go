package domain

// MaxBorrowedPercent is the share of cloned items above which content can
// not be published
const MaxBorrowedPercent = 80.0

// Originality counts the items that make up a piece of content and how many
// of them were cloned from someone else
type Originality struct {
	Total       int `json:"total"`
	NotOriginal int `json:"not_original"`
}

func (o Originality) Add(other Originality) Originality {
	return Originality{
		Total:       o.Total + other.Total,
		NotOriginal: o.NotOriginal + other.NotOriginal,
	}
}

// BorrowedPercent is the share of cloned items in percent
func (o Originality) BorrowedPercent() float64 {
	if o.Total == 0 {
		return 0
	}
	return float64(o.NotOriginal) / float64(o.Total) * 100
}

// OriginalPercent is the share of own items in percent
func (o Originality) OriginalPercent() float64 {
	return 100 - o.BorrowedPercent()
}

// Publishable reports whether at least 20% of the content is original
func (o Originality) Publishable() bool {
	return o.BorrowedPercent() < MaxBorrowedPercent
}

func countClone(l *Lineage) int {
	if l.IsClone() {
		return 1
	}
	return 0
}

// ExerciseOriginality counts a single exercise
func ExerciseOriginality(e *Exercise) Originality {
	return Originality{Total: 1, NotOriginal: countClone(&e.Lineage)}
}

// WorkoutOriginality counts the workout itself plus every entry. Entries
// whose exercise is missing from exercises count as original.
func WorkoutOriginality(w *Workout, exercises map[string]*Exercise) Originality {
	o := Originality{Total: 1 + len(w.Exercises), NotOriginal: countClone(&w.Lineage)}
	for _, entry := range w.Exercises {
		if e, ok := exercises[entry.ExerciseID]; ok {
			o.NotOriginal += countClone(&e.Lineage)
		}
	}
	return o
}

// PlanOriginality counts the plan itself and, for every scheduled day, the
// workout's own items plus the schedule entry. A cloned workout marks its
// entry as not original. Entries whose workout is missing count as original.
func PlanOriginality(p *WeeklyFitnessPlan, workouts map[string]*Workout, exercises map[string]*Exercise) Originality {
	o := Originality{Total: 1, NotOriginal: countClone(&p.Lineage)}
	for _, entry := range p.Workouts {
		w, ok := workouts[entry.WorkoutID]
		if !ok {
			o.Total++
			continue
		}
		o = o.Add(WorkoutOriginality(w, exercises))
		o = o.Add(Originality{Total: 1, NotOriginal: countClone(&w.Lineage)})
	}
	return o
}
