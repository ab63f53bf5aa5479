package annotations

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatGameTime renders a position as the sidecar game-time string,
// "1 - MM:SS". The period is always 1.
func FormatGameTime(positionMs int) string {
	totalSeconds := positionMs / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("1 - %02d:%02d", minutes, seconds)
}

// ParseGameTime converts a "1 - MM:SS" game-time string back to
// milliseconds. The period prefix is accepted but ignored.
func ParseGameTime(gameTime string) (int, error) {
	parts := strings.Split(gameTime, " - ")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid game time %q", gameTime)
	}
	clock := strings.Split(parts[1], ":")
	if len(clock) != 2 {
		return 0, fmt.Errorf("invalid game time %q", gameTime)
	}
	minutes, err := strconv.Atoi(clock[0])
	if err != nil {
		return 0, fmt.Errorf("invalid game time %q: %w", gameTime, err)
	}
	seconds, err := strconv.Atoi(clock[1])
	if err != nil {
		return 0, fmt.Errorf("invalid game time %q: %w", gameTime, err)
	}
	if minutes < 0 || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid game time %q", gameTime)
	}
	return (minutes*60 + seconds) * 1000, nil
}
