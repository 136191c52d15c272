package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"tournament-hosting-system/storage"
)

// StartRosterAudit runs a periodic consistency check: for every tournament,
// the cached player count must equal the roster length. The committer is the
// only writer of both, so drift here means a bug or manual data surgery; the
// audit logs it, it never repairs silently.
func (s *TournamentService) StartRosterAudit() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("❌ [AUDIT] scheduler init failed: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.auditRosters(ctx)
		}),
	)
	if err != nil {
		log.Printf("❌ [AUDIT] job registration failed: %v", err)
	}
}

func (s *TournamentService) auditRosters(ctx context.Context) {
	tournaments, err := s.Store.ListTournaments(ctx, storage.TournamentFilter{})
	if err != nil {
		log.Printf("❌ [AUDIT] list failed: %v", err)
		return
	}

	drifted := 0
	for _, t := range tournaments {
		count, err := s.Store.CountRegistrations(ctx, t.ID)
		if err != nil {
			log.Printf("❌ [AUDIT] count for %s failed: %v", t.ID, err)
			continue
		}
		if int64(t.Players) != count {
			drifted++
			log.Printf("⚠️  [AUDIT] tournament %s (%s): players=%d but roster has %d entries",
				t.Name, t.ID, t.Players, count)
		}
		if t.Players > t.MaxPlayers {
			drifted++
			log.Printf("⚠️  [AUDIT] tournament %s (%s): players=%d exceeds maxPlayers=%d",
				t.Name, t.ID, t.Players, t.MaxPlayers)
		}
	}
	if drifted == 0 {
		log.Printf("✅ [AUDIT] %d tournaments checked, rosters consistent", len(tournaments))
	}
}
