package bot

import "github.com/borglike/bot/internal/world"

// GoalKind tags the goal variants the selector arbitrates between.
type GoalKind uint8

const (
	GoalWait GoalKind = iota
	GoalFlee
	GoalRecover
	GoalKill
	GoalKite
	GoalTake
	GoalExplore
	GoalDescend
	GoalSellToMerchant
	GoalVisitHealer
	GoalBuyFromMerchant
	GoalReturnPortal
	GoalExitTown
	GoalHuntUnique
	GoalFarm
	GoalAscendToFarm
	GoalTownTrip
	GoalUseAltar
	GoalVisitMerchant
)

func (k GoalKind) String() string {
	switch k {
	case GoalFlee:
		return "FLEE"
	case GoalRecover:
		return "RECOVER"
	case GoalKill:
		return "KILL"
	case GoalKite:
		return "KITE"
	case GoalTake:
		return "TAKE"
	case GoalExplore:
		return "EXPLORE"
	case GoalDescend:
		return "DESCEND"
	case GoalSellToMerchant:
		return "SELL_TO_MERCHANT"
	case GoalVisitHealer:
		return "VISIT_HEALER"
	case GoalBuyFromMerchant:
		return "BUY_FROM_MERCHANT"
	case GoalReturnPortal:
		return "RETURN_PORTAL"
	case GoalExitTown:
		return "EXIT_TOWN"
	case GoalHuntUnique:
		return "HUNT_UNIQUE"
	case GoalFarm:
		return "FARM"
	case GoalAscendToFarm:
		return "ASCEND_TO_FARM"
	case GoalTownTrip:
		return "TOWN_TRIP"
	case GoalUseAltar:
		return "USE_ALTAR"
	case GoalVisitMerchant:
		return "VISIT_MERCHANT"
	}
	return "WAIT"
}

// Priority is the constant arbitration table. Higher wins.
func (k GoalKind) Priority() int {
	switch k {
	case GoalFlee:
		return 100
	case GoalKite:
		return 90
	case GoalSellToMerchant:
		return 88
	case GoalVisitHealer:
		return 85
	case GoalBuyFromMerchant:
		return 82
	case GoalRecover:
		return 80
	case GoalHuntUnique:
		return 75
	case GoalFarm:
		return 72
	case GoalKill:
		return 70
	case GoalTownTrip:
		return 68
	case GoalAscendToFarm:
		return 66
	case GoalUseAltar:
		return 55
	case GoalVisitMerchant:
		return 52
	case GoalTake:
		return 50
	case GoalDescend:
		return 40
	case GoalExplore:
		return 30
	case GoalReturnPortal:
		return 68
	case GoalExitTown:
		return 40
	}
	return 0
}

// reevalInterval is how long the selector holds a goal before letting an
// equal-priority competitor replace it.
func (k GoalKind) reevalInterval() int {
	if k == GoalExplore {
		return 15
	}
	return 10
}

// Goal is one selected objective with its shared header.
type Goal struct {
	Kind      GoalKind
	Target    *world.Point
	TargetID  int
	Reason    string
	StartTurn int
}

func newGoal(k GoalKind, target *world.Point, targetID int, reason string, turn int) *Goal {
	return &Goal{Kind: k, Target: target, TargetID: targetID, Reason: reason, StartTurn: turn}
}

// TargetPoint returns the goal target, or ok=false when untargeted.
func (g *Goal) TargetPoint() (world.Point, bool) {
	if g == nil || g.Target == nil {
		return world.Point{}, false
	}
	return *g.Target, true
}
