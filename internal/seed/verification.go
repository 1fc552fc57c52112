package seed

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// verifyResults checks that retrieved ranks and the queue agree and
// that the queue is ordered by ascending global rank.
func verifyResults(ctx context.Context, config *Config, ranks, queue []RankEntry, stats *Stats) error {
	log.Println("Verifying results...")

	if len(ranks) == 0 {
		return fmt.Errorf("no ranks to verify")
	}

	// Sort ranks ascending; the lowest global rank sits at the head
	// of the buyer-group queue.
	sortedRanks := make([]RankEntry, len(ranks))
	copy(sortedRanks, ranks)
	sort.Slice(sortedRanks, func(i, j int) bool {
		if sortedRanks[i].GlobalRank != sortedRanks[j].GlobalRank {
			return sortedRanks[i].GlobalRank < sortedRanks[j].GlobalRank
		}
		return sortedRanks[i].PersonID < sortedRanks[j].PersonID
	})

	if len(queue) > 0 {
		if err := verifyQueueConsistency(sortedRanks, queue); err != nil {
			log.Printf("Queue consistency warning: %v", err)
		} else {
			log.Println("Queue consistency verified")
		}
	}

	displayQueueHead(sortedRanks, queue, config.Verbose)

	log.Println("Result verification completed")
	return nil
}

// verifyQueueConsistency checks that the queue head matches the best
// individually retrieved rank and that positions are properly ordered.
func verifyQueueConsistency(sortedRanks, queue []RankEntry) error {
	if len(queue) == 0 {
		return fmt.Errorf("empty queue")
	}

	topRank := sortedRanks[0]
	topQueue := queue[0]

	if topRank.PersonID != topQueue.PersonID {
		return fmt.Errorf("queue head (%s) does not match best ranked person (%s)",
			topQueue.PersonID, topRank.PersonID)
	}

	if topRank.GlobalRank != topQueue.GlobalRank {
		return fmt.Errorf("queue head rank (%d) does not match best retrieved rank (%d)",
			topQueue.GlobalRank, topRank.GlobalRank)
	}

	for i := 1; i < len(queue); i++ {
		if queue[i].GlobalRank < queue[i-1].GlobalRank {
			return fmt.Errorf("queue not properly ordered: entry %d outranks entry %d", i, i-1)
		}
		if queue[i].Position != queue[i-1].Position+1 {
			return fmt.Errorf("queue positions not contiguous at entry %d", i)
		}
	}

	return nil
}

// displayQueueHead shows the head of the queue and, in verbose mode,
// role distribution statistics.
func displayQueueHead(sortedRanks, queue []RankEntry, verbose bool) {
	topN := 10
	if len(sortedRanks) < topN {
		topN = len(sortedRanks)
	}

	log.Printf("Top %d from retrieved ranks:", topN)
	for i := 0; i < topN; i++ {
		entry := sortedRanks[i]
		log.Printf("   %d. %s (%s) - rank %d", i+1, entry.Name, entry.Role, entry.GlobalRank)
	}

	if len(queue) > 0 {
		queueTopN := topN
		if len(queue) < queueTopN {
			queueTopN = len(queue)
		}

		log.Printf("Top %d from queue:", queueTopN)
		for i := 0; i < queueTopN; i++ {
			entry := queue[i]
			log.Printf("   %d. %s (%s) - rank %d", entry.Position, entry.Name, entry.Role, entry.GlobalRank)
		}
	}

	if verbose {
		byRole := roleDistribution(sortedRanks)
		log.Println("Role distribution:")
		for _, role := range sortedRoleKeys(byRole) {
			log.Printf("   %s: %d", role, byRole[role])
		}
	}
}

// roleDistribution counts entries per buyer-group role.
func roleDistribution(ranks []RankEntry) map[string]int {
	byRole := make(map[string]int)
	for _, entry := range ranks {
		role := entry.Role
		if role == "" {
			role = "unclassified"
		}
		byRole[role]++
	}
	return byRole
}

func sortedRoleKeys(byRole map[string]int) []string {
	keys := make([]string, 0, len(byRole))
	for role := range byRole {
		keys = append(keys, role)
	}
	sort.Strings(keys)
	return keys
}
