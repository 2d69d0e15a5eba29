package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/outcome"
	"github.com/okian/ladder/internal/domain/rating"
	"github.com/okian/ladder/internal/domain/trend"
	. "github.com/smartystreets/goconvey/convey"
)

var day = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func stores(t *testing.T) map[string]func() repository.Store {
	return map[string]func() repository.Store{
		"memory": func() repository.Store { return repository.NewMemoryStore() },
		"sqlite": func() repository.Store {
			path := filepath.Join(t.TempDir(), "ladder.db")
			s, err := repository.NewSQLStore(context.Background(), repository.DriverSQLite, path)
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func player(id, name string) model.Player {
	return model.Player{ID: id, Name: name, CreatedAt: day, Standing: model.NewStanding(rating.DefaultParams())}
}

func seed(ctx context.Context, s repository.Store) error {
	league := "l1"
	return s.Update(ctx, func(tx repository.Tx) error {
		for _, p := range []model.Player{player("p1", "Ana"), player("p2", "Bo")} {
			if err := tx.CreatePlayer(ctx, p); err != nil {
				return err
			}
		}
		if err := tx.CreateLeague(ctx, model.League{ID: league, Name: "Spring", StartDate: day}); err != nil {
			return err
		}
		return tx.CreateTournament(ctx, model.Tournament{ID: "t1", Name: "Week 1", Date: day, LeagueID: &league})
	})
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, open := range stores(t) {
		Convey("Given a seeded "+name+" store", t, func() {
			s := open()
			So(seed(ctx, s), ShouldBeNil)

			Convey("When players are looked up", func() {
				var byName, byID model.Player
				var missing error
				err := s.View(ctx, func(tx repository.Tx) error {
					var err error
					if byName, err = tx.PlayerByName(ctx, " Ana "); err != nil {
						return err
					}
					if byID, err = tx.Player(ctx, "p2"); err != nil {
						return err
					}
					_, missing = tx.PlayerByName(ctx, "Cy")
					return nil
				})

				Convey("Then names and ids resolve and unknown ones are not found", func() {
					So(err, ShouldBeNil)
					So(byName.ID, ShouldEqual, "p1")
					So(byName.CreatedAt.Equal(day), ShouldBeTrue)
					So(byID.Rating, ShouldEqual, 1500)
					So(errors.Is(missing, repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When a player name is reused", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.CreatePlayer(ctx, player("p9", "Ana"))
				})

				Convey("Then it is a duplicate", func() {
					So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
				})
			})

			Convey("When standings are saved in every scope", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					p, err := tx.Player(ctx, "p1")
					if err != nil {
						return err
					}
					p.Apply(rating.State{Rating: 1540.5, Deviation: 290.25, Volatility: 0.0599})
					p.Record.Add(1)
					p.Trend = trend.BigUp
					if err := tx.SavePlayer(ctx, p); err != nil {
						return err
					}
					lp := model.LeaguePlayer{LeagueID: "l1", PlayerID: "p1", Standing: p.Standing}
					if err := tx.SaveLeaguePlayer(ctx, lp); err != nil {
						return err
					}
					lp.Record.Add(-1)
					if err := tx.SaveLeaguePlayer(ctx, lp); err != nil {
						return err
					}
					return tx.SaveTournamentPlayer(ctx, model.TournamentPlayer{TournamentID: "t1", PlayerID: "p1", Standing: p.Standing})
				})
				So(err, ShouldBeNil)

				Convey("Then each scope reads back what was written", func() {
					_ = s.View(ctx, func(tx repository.Tx) error {
						p, err := tx.Player(ctx, "p1")
						So(err, ShouldBeNil)
						So(p.Rating, ShouldEqual, 1540.5)
						So(p.Trend, ShouldEqual, trend.BigUp)
						So(p.Record, ShouldResemble, model.Record{Played: 1, Won: 1})

						lp, err := tx.LeaguePlayer(ctx, "l1", "p1")
						So(err, ShouldBeNil)
						So(lp.Record, ShouldResemble, model.Record{Played: 2, Won: 1, Lost: 1})

						lps, err := tx.ListLeaguePlayers(ctx, "l1")
						So(err, ShouldBeNil)
						So(lps, ShouldHaveLength, 1)

						tps, err := tx.ListTournamentPlayers(ctx, "t1")
						So(err, ShouldBeNil)
						So(tps, ShouldHaveLength, 1)
						So(tps[0].Deviation, ShouldEqual, 290.25)
						return nil
					})
				})
			})

			Convey("When a membership references an unknown league", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.SaveLeaguePlayer(ctx, model.LeaguePlayer{LeagueID: "nope", PlayerID: "p1", Standing: model.NewStanding(rating.DefaultParams())})
				})

				Convey("Then it is not found", func() {
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When matches are appended", func() {
				a, b := "p1", "p2"
				games := []outcome.Game{outcome.WinA, outcome.WinB, outcome.NotPlayed}
				err := s.Update(ctx, func(tx repository.Tx) error {
					if err := tx.CreateMatch(ctx, model.NewMatch("m2", "t1", 1, &a, &b, games, day)); err != nil {
						return err
					}
					return tx.CreateMatch(ctx, model.NewMatch("m1", "t1", 1, &a, nil, []outcome.Game{outcome.WinA}, day))
				})
				So(err, ShouldBeNil)

				Convey("Then they come back in insertion order with their games", func() {
					var ms []model.Match
					So(s.View(ctx, func(tx repository.Tx) error {
						var err error
						ms, err = tx.ListMatches(ctx, "t1")
						return err
					}), ShouldBeNil)
					So(ms, ShouldHaveLength, 2)
					So(ms[0].ID, ShouldEqual, "m2")
					So(ms[0].Games, ShouldResemble, games)
					So(ms[0].WinnerID, ShouldBeNil)
					So(ms[1].PlayerBID, ShouldBeNil)
					So(*ms[1].WinnerID, ShouldEqual, "p1")
				})
			})

			Convey("When rounds are created and one is deleted", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					for i, id := range []string{"r1", "r2", "r3"} {
						if err := tx.CreateRound(ctx, model.Round{ID: id, TournamentID: "t1", Number: i + 1}); err != nil {
							return err
						}
					}
					return tx.DeleteRound(ctx, "r2")
				})
				So(err, ShouldBeNil)

				Convey("Then the rest remain ordered and numbers stay unique", func() {
					_ = s.Update(ctx, func(tx repository.Tx) error {
						rs, err := tx.ListRounds(ctx, "t1")
						So(err, ShouldBeNil)
						So(rs, ShouldHaveLength, 2)
						So(rs[1].Number, ShouldEqual, 3)

						err = tx.CreateRound(ctx, model.Round{ID: "r9", TournamentID: "t1", Number: 1})
						So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
						return nil
					})
				})
			})

			Convey("When the tournament winner is saved", func() {
				winner := "p2"
				err := s.Update(ctx, func(tx repository.Tx) error {
					tr, err := tx.Tournament(ctx, "t1")
					if err != nil {
						return err
					}
					tr.WinnerID = &winner
					return tx.SaveTournament(ctx, tr)
				})
				So(err, ShouldBeNil)

				Convey("Then it is listed under its league", func() {
					_ = s.View(ctx, func(tx repository.Tx) error {
						ts, err := tx.ListTournaments(ctx, "l1")
						So(err, ShouldBeNil)
						So(ts, ShouldHaveLength, 1)
						So(*ts[0].WinnerID, ShouldEqual, "p2")
						So(*ts[0].LeagueID, ShouldEqual, "l1")
						return nil
					})
				})
			})

			Convey("When an update fails halfway", func() {
				boom := errors.New("boom")
				err := s.Update(ctx, func(tx repository.Tx) error {
					if err := tx.CreatePlayer(ctx, player("p3", "Cy")); err != nil {
						return err
					}
					return boom
				})

				Convey("Then nothing it wrote is visible", func() {
					So(errors.Is(err, boom), ShouldBeTrue)
					_ = s.View(ctx, func(tx repository.Tx) error {
						_, err := tx.Player(ctx, "p3")
						So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
						ps, _ := tx.ListPlayers(ctx)
						So(ps, ShouldHaveLength, 2)
						return nil
					})
				})
			})

			Convey("When an event is recorded twice", func() {
				first := s.Update(ctx, func(tx repository.Tx) error { return tx.RecordEvent(ctx, "evt", day) })
				second := s.Update(ctx, func(tx repository.Tx) error { return tx.RecordEvent(ctx, "evt", day) })

				Convey("Then the second is a duplicate", func() {
					So(first, ShouldBeNil)
					So(errors.Is(second, repository.ErrDuplicate), ShouldBeTrue)
				})
			})

			Convey("When a view tries to write", func() {
				err := s.View(ctx, func(tx repository.Tx) error {
					return tx.RecordEvent(ctx, "evt", day)
				})

				Convey("Then it is refused", func() {
					So(errors.Is(err, repository.ErrReadOnly), ShouldBeTrue)
				})
			})
		})
	}
}

func TestSQLStoreOptions(t *testing.T) {
	Convey("Given bad store settings", t, func() {
		ctx := context.Background()

		Convey("Then an empty dsn or unknown driver is refused", func() {
			_, err := repository.NewSQLStore(ctx, repository.DriverSQLite, " ")
			So(err, ShouldNotBeNil)
			_, err = repository.NewSQLStore(ctx, "mysql", "x")
			So(err, ShouldNotBeNil)
		})

		Convey("Then reopening a database does not reapply migrations", func() {
			path := filepath.Join(t.TempDir(), "twice.db")
			s1, err := repository.NewSQLStore(ctx, repository.DriverSQLite, path)
			So(err, ShouldBeNil)
			So(s1.Close(), ShouldBeNil)
			s2, err := repository.NewSQLStore(ctx, repository.DriverSQLite, path)
			So(err, ShouldBeNil)
			So(s2.Close(), ShouldBeNil)
		})
	})
}
