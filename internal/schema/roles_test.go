package schema

import "testing"

func TestPick_PriorityOverColumnOrder(t *testing.T) {
	// Earlier candidate wins regardless of column order in the input.
	cands := Candidates[RoleID]

	got, ok := Pick([]string{"movie_id", "tmdb_id"}, cands)
	if !ok || got != "movie_id" {
		t.Fatalf("Pick = %q, %v; want movie_id", got, ok)
	}
	got, ok = Pick([]string{"tmdb_id", "movie_id"}, cands)
	if !ok || got != "movie_id" {
		t.Fatalf("Pick (reversed columns) = %q, %v; want movie_id", got, ok)
	}
}

func TestPick_SubstringMatch(t *testing.T) {
	got, ok := Pick([]string{"Something", "tmdb_id_x"}, Candidates[RoleID])
	if !ok || got != "tmdb_id_x" {
		t.Fatalf("Pick = %q, %v; want tmdb_id_x", got, ok)
	}
	// Substring matching is case-insensitive against the normalized name and
	// returns the original column spelling.
	got, ok = Pick([]string{" Release_Date "}, Candidates[RoleDate])
	if !ok || got != " Release_Date " {
		t.Fatalf("Pick = %q, %v; want original spelling", got, ok)
	}
}

func TestPick_NoMatch(t *testing.T) {
	if got, ok := Pick([]string{"foo", "bar"}, Candidates[RoleDirector]); ok {
		t.Fatalf("Pick = %q; want no match", got)
	}
}

func TestResolve(t *testing.T) {
	m := Resolve([]string{"id", "title", "release_date", "genres", "director", "vote_count", "vote_average", "popularity"})
	want := map[Role]string{
		RoleID:          "id",
		RoleTitle:       "title",
		RoleDate:        "release_date",
		RoleGenre:       "genres",
		RoleDirector:    "director",
		RoleVoteCount:   "vote_count",
		RoleVoteAverage: "vote_average",
		RolePopularity:  "popularity",
	}
	for role, col := range want {
		got, ok := m.Column(role)
		if !ok || got != col {
			t.Errorf("role %s = %q, %v; want %q", role, got, ok, col)
		}
	}
}

func TestResolve_AbsentRoles(t *testing.T) {
	m := Resolve([]string{"name", "num_votes"})
	if got, ok := m.Column(RoleTitle); !ok || got != "name" {
		t.Fatalf("title = %q, %v", got, ok)
	}
	if got, ok := m.Column(RoleVoteCount); !ok || got != "num_votes" {
		t.Fatalf("vote_count = %q, %v", got, ok)
	}
	if _, ok := m.Column(RoleGenre); ok {
		t.Fatal("genre should be absent")
	}
	if _, ok := m.Column(RoleDate); ok {
		t.Fatal("date should be absent")
	}
}
