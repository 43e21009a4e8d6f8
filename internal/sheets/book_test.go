package sheets

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/desertthunder/songpick/internal/shared"
)

func newTestBook(t *testing.T) (*Book, *MemoryClient) {
	t.Helper()
	client := NewMemoryClient()
	layout := shared.DefaultConfig().Spreadsheet
	return NewBook(client, layout, shared.NewLogger(io.Discard)), client
}

func TestBook(t *testing.T) {
	ctx := context.Background()

	t.Run("EnsureSheet creates sheet with header", func(t *testing.T) {
		book, client := newTestBook(t)

		created, err := book.EnsureSheet(ctx)
		if err != nil {
			t.Fatalf("EnsureSheet() error: %v", err)
		}
		if !created {
			t.Error("expected sheet to be created")
		}
		if got := client.Cell("선곡", 3, 0).Value; got != "선곡자" {
			t.Errorf("header A3 = %q", got)
		}
		if got := client.Cell("선곡", 3, 3).Value; got != "유튜브 링크" {
			t.Errorf("header D3 = %q", got)
		}

		created, err = book.EnsureSheet(ctx)
		if err != nil || created {
			t.Errorf("second EnsureSheet() = (%v, %v), want (false, nil)", created, err)
		}
		if client.Count("AddSheet") != 1 {
			t.Errorf("AddSheet called %d times", client.Count("AddSheet"))
		}
	})

	t.Run("AppendRow writes after header and fills gaps", func(t *testing.T) {
		book, client := newTestBook(t)
		if _, err := book.EnsureSheet(ctx); err != nil {
			t.Fatal(err)
		}

		row, err := book.AppendRow(ctx, []any{"김철수", "Artist", "Song", EncodeHyperlink("https://youtu.be/abcdefghijk")})
		if err != nil {
			t.Fatalf("AppendRow() error: %v", err)
		}
		if row != 4 {
			t.Errorf("first row = %d, want 4", row)
		}

		cell := client.Cell("선곡", 4, 3)
		if DecodeLink(cell) != "https://youtu.be/abcdefghijk" {
			t.Errorf("link cell = %+v", cell)
		}

		if _, err := book.AppendRow(ctx, []any{"b", "b", "b", "b"}); err != nil {
			t.Fatal(err)
		}
		if _, err := book.AppendRow(ctx, []any{"c", "c", "c", "c"}); err != nil {
			t.Fatal(err)
		}

		if err := client.Update(ctx, "선곡!A5:D5", [][]any{{"", "", "", ""}}, Raw); err != nil {
			t.Fatal(err)
		}

		row, err = book.AppendRow(ctx, []any{"d", "d", "d", "d"})
		if err != nil {
			t.Fatal(err)
		}
		if row != 5 {
			t.Errorf("gap row = %d, want 5", row)
		}
	})

	t.Run("AppendRow surfaces read failures", func(t *testing.T) {
		book, client := newTestBook(t)
		client.SeedValues("선곡", nil)
		client.FailOn("Values", shared.ErrAuthExpired)

		if _, err := book.AppendRow(ctx, []any{"a"}); !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected auth expired, got %v", err)
		}
		if client.Count("Update") != 0 {
			t.Error("no write expected after failed read")
		}
	})

	t.Run("FindUserColumn", func(t *testing.T) {
		book, client := newTestBook(t)
		header := make([]string, 24)
		header[20] = "김철수"
		header[21] = "이영희"
		header[23] = "김철수"
		client.SeedValues("선곡", [][]string{header})

		col, ok, err := book.FindUserColumn(ctx, "이영희")
		if err != nil || !ok || col != "V" {
			t.Errorf("FindUserColumn(이영희) = (%s, %v, %v), want (V, true, nil)", col, ok, err)
		}

		col, ok, _ = book.FindUserColumn(ctx, "김철수")
		if !ok || col != "U" {
			t.Errorf("FindUserColumn(김철수) = (%s, %v), want (U, true)", col, ok)
		}

		if _, ok, err := book.FindUserColumn(ctx, "박민수"); ok || err != nil {
			t.Errorf("expected not found without error, got (%v, %v)", ok, err)
		}
	})

	t.Run("WriteCell", func(t *testing.T) {
		book, client := newTestBook(t)
		client.SeedValues("선곡", nil)

		if err := book.WriteCell(ctx, "V", 7, "유잼"); err != nil {
			t.Fatalf("WriteCell() error: %v", err)
		}
		if got := client.Cell("선곡", 7, 21).Value; got != "유잼" {
			t.Errorf("V7 = %q", got)
		}
	})

	t.Run("LinkCells skips the member header row", func(t *testing.T) {
		book, client := newTestBook(t)
		client.Seed("선곡", [][]Cell{
			{{}, {}, {}, {}, {Value: "https://youtu.be/zzzzzzzzzzz"}},
			{{}, {}, {}, {}, {Formula: EncodeHyperlink("https://youtu.be/aaaaaaaaaaa")}},
			{},
			{{}, {}, {}, {}, {Hyperlink: "https://youtu.be/bbbbbbbbbbb"}},
		})

		cells, err := book.LinkCells(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(cells) != 3 {
			t.Fatalf("got %d cells, want 3", len(cells))
		}
		if DecodeLink(cells[0]) != "https://youtu.be/aaaaaaaaaaa" || DecodeLink(cells[1]) != "" || DecodeLink(cells[2]) != "https://youtu.be/bbbbbbbbbbb" {
			t.Errorf("unexpected cells %+v", cells)
		}
	})

	t.Run("LeaderboardSheets", func(t *testing.T) {
		book, client := newTestBook(t)
		client.SeedValues("선곡", nil)
		client.SeedValues("Leaderboard", nil)
		client.SeedValues("Archive", nil)
		client.SeedValues("2024 Leaderboard", nil)

		got, err := book.LeaderboardSheets(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0] != "Leaderboard" || got[1] != "2024 Leaderboard" {
			t.Errorf("LeaderboardSheets() = %v", got)
		}
	})
}
