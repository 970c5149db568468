package intel

// Heuristic thresholds for every coaching signal, kept together so they can be
// tuned in one place.
const (
	// tilt
	tiltWindow          = 6
	tiltDropWeight      = 38.0
	tiltVarianceWeight  = 24.0
	tiltStreakWeight    = 12.0
	tiltStreakFloor     = 2
	tiltRollLeakWeight  = 12.0
	tiltScoreThreshold  = 58.0
	tiltHardResetDrop   = 0.6
	badStreakPlacement  = 3
	rollLeakKeyword     = "roll"
	topTwoTeamPlacement = 2

	// roles
	tempoDamageShare = 0.56
	tempoGoldCeiling = 8

	// player fingerprint
	tempoPusherLevel     = 8.5
	tempoPusherGold      = 8.0
	econGreederGold      = 12.0
	highVarianceStd      = 1.8
	consistencyStd       = 1.2
	stableTop4Rate       = 62.0
	contestedFighterHits = 2
	pivotSpecialistHits  = 1
	fingerprintLabels    = 5
	fingerprintTopTraits = 3
	metaTraitWindow      = 6

	// duo fingerprint
	highOverlapRate   = 45.0
	complementaryRate = 20.0

	// win conditions
	splitSampleFloor  = 3
	level8SampleFloor = 3
	pairSampleFloor   = 2
	winConditionLimit = 3

	// loss autopsy
	autopsyLimit          = 3
	autopsyFactorLimit    = 3
	lateCollapsePlacement = 4
	lowCapLevel           = 8.0
	lowPressureDamage     = 90
	exhaustedGold         = 5
	weightLateCollapse    = 35.0
	weightLowCap          = 28.0
	weightLowPressure     = 24.0
	weightExhaustion      = 18.0
	weightVariance        = 14.0

	// contested meta pressure
	pressureHeavy    = 65.0
	pressureModerate = 45.0

	// play windows
	windowSampleFloor = 2

	// timing coach
	timingHigherCapDelta = 0.4
	timingOverGreedDelta = -0.3

	// coordination
	coordTop2Weight     = 0.7
	coordWinWeight      = 0.3
	coordDefaultScore   = 50.0
	coordHighPressure   = 60.0
	coordCandidateLimit = 3
)
