package school

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrStreamRequired       = errors.New("student needs stream assignment")
	ErrNoClassroomAvailable = errors.New("no classroom with open seats")
	ErrSectionsExhausted    = errors.New("section letters exhausted")
)

// sectionLetters is the full set of valid section labels; demand past the
// last one is an error, never a silent overflow.
const sectionLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type (
	PlacementOptions struct {
		AutoCreate       bool
		DefaultCapacity  int
		DefaultTeacherID null.String
	}

	// PlacementRequest is one student's demand for a seat at a class level.
	PlacementRequest struct {
		StudentID  string
		ClassLevel ClassLevel
		Stream     null.String
	}

	// CapacityReport is the read-only pre-flight view of a batch of
	// placement requests.
	CapacityReport struct {
		// FullClassrooms are classrooms already at or over capacity.
		FullClassrooms []Classroom
		// MissingStream lists students that cannot be placed until a stream
		// is assigned to them.
		MissingStream []string
		// SectionsNeeded maps a class level/stream group ("SS1 science") to
		// the number of new sections required to absorb its demand.
		SectionsNeeded map[string]int
	}

	// Resolver maps a target class level (+ optional stream) to a concrete
	// classroom, creating one when necessary and permitted.
	Resolver struct {
		studentRepo StudentRepository
		classRepo   ClassroomRepository
		streamRepo  StreamRepository
		log         core.Logger
	}
)

func (rep CapacityReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "full classrooms: %d\n", len(rep.FullClassrooms))
	for _, room := range rep.FullClassrooms {
		fmt.Fprintf(&b, "  %s (%d/%d)\n", room.Name(), room.EnrolledCount, room.Capacity)
	}
	fmt.Fprintf(&b, "needs stream: %d\n", len(rep.MissingStream))
	for _, id := range rep.MissingStream {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	groups := make([]string, 0, len(rep.SectionsNeeded))
	for label := range rep.SectionsNeeded {
		groups = append(groups, label)
	}
	sort.Strings(groups)
	fmt.Fprintf(&b, "new sections needed: %d\n", len(groups))
	for _, label := range groups {
		fmt.Fprintf(&b, "  %s: %d\n", label, rep.SectionsNeeded[label])
	}
	return b.String()
}

func NewResolver(studentRepo StudentRepository, classRepo ClassroomRepository, streamRepo StreamRepository, log core.Logger) *Resolver {
	return &Resolver{
		studentRepo: studentRepo,
		classRepo:   classRepo,
		streamRepo:  streamRepo,
		log:         log,
	}
}

// Resolve finds the least-occupied classroom with an open seat for the given
// class level and stream, creating a new section when none has capacity and
// opt.AutoCreate is set. It reports whether the returned classroom was created.
// Senior levels require a stream: Resolve returns ErrStreamRequired when none
// is set so the caller can defer placement, and a ValidationError when the
// value is not a known stream.
func (r *Resolver) Resolve(ctx context.Context, level ClassLevel, stream null.String, opt PlacementOptions, exec ...core.DBExecutor) (Classroom, bool, error) {
	if !level.Valid() {
		return Classroom{}, false, core.NewValidationError(
			fmt.Errorf("invalid class level %q", level),
			core.FieldError{Field: "class_level", Error: fmt.Sprintf("invalid class level %q", level)},
		)
	}
	if level.IsSenior() {
		if !stream.Valid || stream.String == "" {
			return Classroom{}, false, ErrStreamRequired
		}
		if !StreamName(stream.String).Valid() {
			return Classroom{}, false, core.NewValidationError(
				fmt.Errorf("invalid stream %q", stream.String),
				core.FieldError{Field: "stream", Error: fmt.Sprintf("invalid stream %q", stream.String)},
			)
		}
	} else {
		stream = null.String{} // junior levels carry no stream
	}

	rooms, err := r.classRepo.QueryClassroomsForUpdate(ctx, level, stream, exec...)
	if err != nil {
		return Classroom{}, false, err
	}

	// least-occupied room with an open seat; ties keep the repository's
	// (section, id) order
	var best *Classroom
	for i := range rooms {
		if rooms[i].OpenSeats() <= 0 {
			continue
		}
		if best == nil || rooms[i].EnrolledCount < best.EnrolledCount {
			best = &rooms[i]
		}
	}
	if best != nil {
		return *best, false, nil
	}

	if !opt.AutoCreate {
		return Classroom{}, false, ErrNoClassroomAvailable
	}
	if opt.DefaultCapacity <= 0 {
		return Classroom{}, false, core.NewValidationError(
			fmt.Errorf("invalid default capacity %d", opt.DefaultCapacity),
			core.FieldError{Field: "default_capacity", Error: "must be greater than 0"},
		)
	}

	section, err := sectionLabel(len(rooms))
	if err != nil {
		return Classroom{}, false, err
	}
	room := Classroom{
		ClassLevel: level,
		Section:    section,
		Capacity:   opt.DefaultCapacity,
		TeacherID:  opt.DefaultTeacherID,
		CreatedAt:  time.Now().UTC(),
	}
	if stream.Valid {
		st, err := r.streamRepo.GetOrCreateStream(ctx, StreamName(stream.String), exec...)
		if err != nil {
			return Classroom{}, false, err
		}
		room.StreamID = null.StringFrom(st.ID)
		room.Stream = stream
	}
	room, err = r.classRepo.CreateClassroom(ctx, room, exec...)
	if err != nil {
		return Classroom{}, false, err
	}
	if r.log != nil {
		r.log.Info(fmt.Sprintf("created classroom %s (capacity %d)", room.Name(), room.Capacity))
	}
	return room, true, nil
}

// AssignStream records a student's subject stream so that placement can proceed.
func (r *Resolver) AssignStream(ctx context.Context, studentID string, stream StreamName) error {
	if !stream.Valid() {
		return core.NewValidationError(
			fmt.Errorf("invalid stream %q", stream),
			core.FieldError{Field: "stream", Error: fmt.Sprintf("invalid stream %q", stream)},
		)
	}
	if _, err := r.studentRepo.GetStudentByID(ctx, studentID); err != nil {
		return err
	}
	return r.studentRepo.UpdateStudentStream(ctx, studentID, stream)
}

// VerifyCapacity reports, without mutating any state, which classrooms are
// already full, which students still need a stream assigned, and how many new
// sections each class level/stream group would need to absorb its demand.
func (r *Resolver) VerifyCapacity(ctx context.Context, reqs []PlacementRequest, defaultCapacity int) (CapacityReport, error) {
	rep := CapacityReport{SectionsNeeded: make(map[string]int)}

	type group struct {
		level  ClassLevel
		stream null.String
	}
	demand := make(map[group]int)
	order := make([]group, 0, len(reqs)) // first-seen order, for stable reports
	for _, req := range reqs {
		stream := req.Stream
		if req.ClassLevel.IsSenior() {
			if !stream.Valid || stream.String == "" || !StreamName(stream.String).Valid() {
				rep.MissingStream = append(rep.MissingStream, req.StudentID)
				continue
			}
		} else {
			stream = null.String{}
		}
		g := group{req.ClassLevel, stream}
		if _, seen := demand[g]; !seen {
			order = append(order, g)
		}
		demand[g]++
	}

	for _, g := range order {
		rooms, err := r.classRepo.QueryClassrooms(ctx, g.level, g.stream)
		if err != nil {
			return CapacityReport{}, err
		}
		var open int
		for _, room := range rooms {
			if room.OpenSeats() <= 0 {
				rep.FullClassrooms = append(rep.FullClassrooms, room)
			} else {
				open += room.OpenSeats()
			}
		}
		if overflow := demand[g] - open; overflow > 0 {
			rep.SectionsNeeded[groupLabel(g.level, g.stream)] = planSections(overflow, defaultCapacity)
		}
	}
	return rep, nil
}

func groupLabel(level ClassLevel, stream null.String) string {
	if stream.Valid {
		return string(level) + " " + stream.String
	}
	return string(level)
}

// planSections partitions overflow demand into default-capacity sections.
func planSections(demand, capacity int) int {
	if demand <= 0 || capacity <= 0 {
		return 0
	}
	return (demand + capacity - 1) / capacity
}

// sectionLabel maps a section ordinal to its letter: 0 -> "A", 1 -> "B", ...
func sectionLabel(ord int) (string, error) {
	if ord < 0 || ord >= len(sectionLetters) {
		return "", ErrSectionsExhausted
	}
	return sectionLetters[ord : ord+1], nil
}
