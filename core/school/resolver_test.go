package school_test

import (
	"context"
	"errors"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

func setup(t *testing.T) (*inmemdb.DB, *school.Resolver) {
	t.Helper()
	db := testutil.PrepareDB(t)
	resolver := school.NewResolver(
		inmemdb.NewStudentRepository(db),
		inmemdb.NewClassroomRepository(db),
		inmemdb.NewStreamRepository(db),
		nil,
	)
	return db, resolver
}

func fillClassroom(t *testing.T, db *inmemdb.DB, room school.Classroom, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		testutil.CreateStudent(t, db, "Student", room.ID+"-"+string(rune('a'+i)), room.ClassLevel, null.StringFrom(room.ID), room.Stream)
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	science := null.StringFrom(string(school.StreamScience))

	t.Run("least occupied room with open seat wins", func(t *testing.T) {
		db, resolver := setup(t)
		roomA := testutil.CreateClassroom(t, db, school.LevelJSS2, null.String{}, "A", 2)
		roomB := testutil.CreateClassroom(t, db, school.LevelJSS2, null.String{}, "B", 2)
		roomC := testutil.CreateClassroom(t, db, school.LevelJSS2, null.String{}, "C", 2)
		fillClassroom(t, db, roomA, 2) // full, must never be picked
		fillClassroom(t, db, roomB, 1)
		fillClassroom(t, db, roomC, 1)

		room, created, err := resolver.Resolve(ctx, school.LevelJSS2, null.String{}, school.PlacementOptions{})
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if created {
			t.Error("Resolve() created = true, want false")
		}
		// B and C tie on occupancy; section order breaks the tie
		if room.ID != roomB.ID {
			t.Errorf("Resolve() picked %s, want %s", room.Name(), roomB.Name())
		}
	})

	t.Run("senior level without stream", func(t *testing.T) {
		_, resolver := setup(t)
		_, _, err := resolver.Resolve(ctx, school.LevelSS1, null.String{}, school.PlacementOptions{})
		if err != school.ErrStreamRequired {
			t.Errorf("Resolve() error = %v, want %v", err, school.ErrStreamRequired)
		}
	})

	t.Run("senior level with unknown stream", func(t *testing.T) {
		_, resolver := setup(t)
		_, _, err := resolver.Resolve(ctx, school.LevelSS1, null.StringFrom("engineering"), school.PlacementOptions{})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("Resolve() error = %v, want a ValidationError", err)
		}
	})

	t.Run("junior level ignores stream", func(t *testing.T) {
		db, resolver := setup(t)
		roomA := testutil.CreateClassroom(t, db, school.LevelJSS3, null.String{}, "A", 5)

		room, _, err := resolver.Resolve(ctx, school.LevelJSS3, science, school.PlacementOptions{})
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if room.ID != roomA.ID {
			t.Errorf("Resolve() picked %s, want %s", room.Name(), roomA.Name())
		}
	})

	t.Run("no seats and no auto-create", func(t *testing.T) {
		db, resolver := setup(t)
		roomA := testutil.CreateClassroom(t, db, school.LevelJSS2, null.String{}, "A", 1)
		fillClassroom(t, db, roomA, 1)

		_, _, err := resolver.Resolve(ctx, school.LevelJSS2, null.String{}, school.PlacementOptions{})
		if err != school.ErrNoClassroomAvailable {
			t.Errorf("Resolve() error = %v, want %v", err, school.ErrNoClassroomAvailable)
		}
	})

	t.Run("auto-creates next section", func(t *testing.T) {
		db, resolver := setup(t)
		opt := school.PlacementOptions{AutoCreate: true, DefaultCapacity: 30}

		room, created, err := resolver.Resolve(ctx, school.LevelSS1, science, opt)
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if !created {
			t.Error("Resolve() created = false, want true")
		}
		if got, want := room.Name(), "SS1 Science A"; got != want {
			t.Errorf("Resolve() room = %q, want %q", got, want)
		}
		if room.Capacity != 30 {
			t.Errorf("Resolve() capacity = %d, want 30", room.Capacity)
		}

		// the new room has seats; the next call reuses it
		again, created, err := resolver.Resolve(ctx, school.LevelSS1, science, opt)
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if created || again.ID != room.ID {
			t.Errorf("Resolve() = (%s, %t), want existing %s", again.Name(), created, room.Name())
		}

		// fill it up; a "B" section follows
		fillClassroom(t, db, room, 30)
		next, created, err := resolver.Resolve(ctx, school.LevelSS1, science, opt)
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if !created {
			t.Error("Resolve() created = false, want true")
		}
		if got, want := next.Name(), "SS1 Science B"; got != want {
			t.Errorf("Resolve() room = %q, want %q", got, want)
		}
	})

	t.Run("auto-create needs a valid capacity", func(t *testing.T) {
		_, resolver := setup(t)
		_, _, err := resolver.Resolve(ctx, school.LevelSS1, science, school.PlacementOptions{AutoCreate: true})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("Resolve() error = %v, want a ValidationError", err)
		}
	})
}

func TestResolver_AssignStream(t *testing.T) {
	ctx := context.Background()
	db, resolver := setup(t)
	studentRepo := inmemdb.NewStudentRepository(db)
	student := testutil.CreateStudent(t, db, "Binta", "ADM001", school.LevelJSS3, null.String{}, null.String{})

	if err := resolver.AssignStream(ctx, student.ID, "engineering"); err == nil {
		t.Error("AssignStream() with unknown stream: error = nil, want ValidationError")
	}
	if err := resolver.AssignStream(ctx, "missing", school.StreamArts); err != school.ErrStudentNotFound {
		t.Errorf("AssignStream() error = %v, want %v", err, school.ErrStudentNotFound)
	}

	if err := resolver.AssignStream(ctx, student.ID, school.StreamCommercial); err != nil {
		t.Fatalf("AssignStream() failed: %v", err)
	}
	refreshed, err := studentRepo.GetStudentByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetStudentByID() failed: %v", err)
	}
	if got, want := refreshed.Stream, null.StringFrom(string(school.StreamCommercial)); got != want {
		t.Errorf("student.Stream = %v, want %v", got, want)
	}
}

func TestResolver_VerifyCapacity(t *testing.T) {
	ctx := context.Background()
	db, resolver := setup(t)
	science := null.StringFrom(string(school.StreamScience))

	full := testutil.CreateClassroom(t, db, school.LevelSS1, science, "A", 2)
	fillClassroom(t, db, full, 2)
	open := testutil.CreateClassroom(t, db, school.LevelSS1, science, "B", 2)
	fillClassroom(t, db, open, 1)

	reqs := []school.PlacementRequest{
		// 4 science students for 1 open seat: 3 overflow, 2 new sections of 2
		{StudentID: "s1", ClassLevel: school.LevelSS1, Stream: science},
		{StudentID: "s2", ClassLevel: school.LevelSS1, Stream: science},
		{StudentID: "s3", ClassLevel: school.LevelSS1, Stream: science},
		{StudentID: "s4", ClassLevel: school.LevelSS1, Stream: science},
		// senior without stream
		{StudentID: "s5", ClassLevel: school.LevelSS1},
		// junior group with no rooms at all
		{StudentID: "s6", ClassLevel: school.LevelJSS1},
	}
	rep, err := resolver.VerifyCapacity(ctx, reqs, 2)
	if err != nil {
		t.Fatalf("VerifyCapacity() failed: %v", err)
	}

	if len(rep.FullClassrooms) != 1 || rep.FullClassrooms[0].ID != full.ID {
		t.Errorf("FullClassrooms = %v, want [%s]", rep.FullClassrooms, full.Name())
	}
	if len(rep.MissingStream) != 1 || rep.MissingStream[0] != "s5" {
		t.Errorf("MissingStream = %v, want [s5]", rep.MissingStream)
	}
	if got, want := rep.SectionsNeeded["SS1 science"], 2; got != want {
		t.Errorf("SectionsNeeded[SS1 science] = %d, want %d", got, want)
	}
	if got, want := rep.SectionsNeeded["JSS1"], 1; got != want {
		t.Errorf("SectionsNeeded[JSS1] = %d, want %d", got, want)
	}

	// read-only: no classroom was created
	rooms, err := inmemdb.NewClassroomRepository(db).QueryClassrooms(ctx, school.LevelSS1, science)
	if err != nil {
		t.Fatalf("QueryClassrooms() failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("classroom count = %d, want 2", len(rooms))
	}
}
