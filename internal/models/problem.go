package models

// ProblemDescription is the full input to one solve request. It is constructed
// by the calling service layer from persisted tournament data and discarded
// after use; the engine never stores it.
type ProblemDescription struct {
	Format       TournamentFormat `json:"format"`
	Participants []Participant    `json:"participants"`
	Teams        []Team           `json:"teams"`
	Games        []Game           `json:"games"`
	Slots        []Slot           `json:"slots"`
	Constraints  ConstraintSet    `json:"constraints"`
	Weights      WeightVector     `json:"weights,omitempty"`
}

// TeamIndex returns teams keyed by ID.
func (p *ProblemDescription) TeamIndex() map[string]Team {
	index := make(map[string]Team, len(p.Teams))
	for _, team := range p.Teams {
		index[team.ID] = team
	}
	return index
}

// ParticipantIndex returns participants keyed by ID.
func (p *ProblemDescription) ParticipantIndex() map[string]Participant {
	index := make(map[string]Participant, len(p.Participants))
	for _, participant := range p.Participants {
		index[participant.ID] = participant
	}
	return index
}

// GameIndex returns games keyed by ID.
func (p *ProblemDescription) GameIndex() map[string]Game {
	index := make(map[string]Game, len(p.Games))
	for _, game := range p.Games {
		index[game.ID] = game
	}
	return index
}

// GameParticipants returns the IDs of everyone on either side of the game.
func (p *ProblemDescription) GameParticipants(game Game) []string {
	teams := p.TeamIndex()
	var ids []string
	ids = append(ids, teams[game.HomeTeamID].ParticipantIDs...)
	ids = append(ids, teams[game.AwayTeamID].ParticipantIDs...)
	return ids
}

// Rounds returns the highest round number present in the game list.
func (p *ProblemDescription) Rounds() int {
	max := 0
	for _, game := range p.Games {
		if game.Round > max {
			max = game.Round
		}
	}
	return max
}
