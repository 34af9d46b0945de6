package game

// Apply validates and applies a single action for the given player. On a
// rule violation it returns a *RuleError and leaves the state untouched;
// on success it advances the turn, the stage or the showdown as required.
func (s *State) Apply(playerID string, action Action) error {
	if s.Resolved() {
		return ErrHandNotStarted
	}
	if playerID != s.Turn {
		return ErrOutOfTurn
	}
	p := s.PlayerByID(playerID)
	if p == nil || !p.CanAct() {
		return ErrOutOfTurn
	}

	highest := s.HighestBet()
	owed := highest - s.RoundBets[playerID]

	switch action.Type {
	case Fold:
		p.Status = StatusFolded

	case Check:
		if owed != 0 {
			return ruleError(CodeIllegalCheck, "must call %d", owed)
		}

	case Call:
		if owed == 0 {
			return ErrIllegalCall
		}
		s.commit(p, min(owed, p.Chips))

	case Raise:
		if action.Amount-highest < s.LastRaise {
			return ruleError(CodeRaiseBelowMinimum, "raise to %d, minimum %d", action.Amount, highest+s.LastRaise)
		}
		if action.Amount > p.Chips+s.RoundBets[playerID] {
			return ruleError(CodeInsufficientChips, "raise to %d with %d available", action.Amount, p.Chips+s.RoundBets[playerID])
		}
		s.LastRaise = action.Amount - highest
		s.commit(p, action.Amount-s.RoundBets[playerID])

	case AllIn:
		s.commit(p, p.Chips)
		p.Status = StatusAllIn

	default:
		// Malformed input from the collaborator is a validation failure,
		// never a crash.
		return ruleError(CodeHandNotStarted, "unknown action type %d", action.Type)
	}

	s.acted[playerID] = true
	s.version++
	s.afterAction(p)
	return nil
}

// ForceFold folds the player immediately, regardless of turn order. Used
// for turn timeouts and disconnects.
func (s *State) ForceFold(playerID string) {
	if s.Resolved() {
		return
	}
	p := s.PlayerByID(playerID)
	if p == nil || p.Status == StatusFolded || !p.InHand() {
		return
	}

	p.Status = StatusFolded
	s.acted[playerID] = true
	s.version++
	s.afterAction(p)
}

// afterAction runs the post-action flow shared by Apply and ForceFold:
// immediate resolution when at most one contesting player remains, stage
// advancement when the betting round is complete, otherwise pass the turn.
// The turn only advances when the actor held it: an out-of-turn ForceFold
// must not move the turn away from the rightful actor.
func (s *State) afterAction(actor *Player) {
	if len(s.contesting()) <= 1 {
		s.resolveShowdown()
		return
	}
	if s.roundComplete() {
		s.advanceStage()
		return
	}
	if s.Turn == actor.ID {
		s.Turn = s.nextActorID(s.seatOf(actor.ID) + 1)
	}
}

// roundComplete reports whether every contesting player has either matched
// the highest bet of the stage (having had a chance to act) or is all-in.
func (s *State) roundComplete() bool {
	highest := s.HighestBet()
	for _, p := range s.Players {
		if !p.CanAct() {
			continue
		}
		if s.RoundBets[p.ID] != highest || !s.acted[p.ID] {
			return false
		}
	}
	return true
}

// advanceStage resets the stage betting state, deals the next community
// cards and advances. When no further betting is possible (at most one
// player can still act) the remaining streets run out in a cascade.
func (s *State) advanceStage() {
	for {
		for id := range s.RoundBets {
			s.RoundBets[id] = 0
		}
		s.acted = make(map[string]bool, len(s.Players))
		s.LastRaise = s.BigBlind

		switch s.Stage {
		case Preflop:
			s.Stage = Flop
			s.Community = append(s.Community, s.deck.Deal(3)...)
		case Flop:
			s.Stage = Turn
			s.Community = append(s.Community, s.deck.Deal(1)...)
		case Turn:
			s.Stage = River
			s.Community = append(s.Community, s.deck.Deal(1)...)
		case River:
			s.Stage = Showdown
		case Showdown:
			return
		}
		s.version++

		if s.Stage == Showdown {
			s.resolveShowdown()
			return
		}

		if s.countCanAct() > 1 {
			s.Turn = s.nextActorID(s.nextSeat(s.Dealer))
			return
		}
		// Everyone (or everyone but one) is all-in: run out the board.
		s.Turn = ""
	}
}

func (s *State) seatOf(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return 0
}
