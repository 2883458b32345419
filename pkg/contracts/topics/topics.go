package topics

const (
	// Wagers
	WagerPlaced   = "wager_placed"
	WagerAccepted = "wager_accepted"
	WagerSettled  = "wager_settled"

	// Resultados finais de jogo (gatilho de liquidação)
	GameResultsFinal = "game_results_final"

	// DLQs
	GameResultsFinalDLQ = "game_results_final_dlq"
)
