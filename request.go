package overrides

// ResolutionRequest carries caller-supplied hints about a resolution context.
// Every field is optional. Explicit fields take precedence over values derived
// from the composite objects.
type ResolutionRequest struct {
	Level       *int
	UserID      string
	ChannelID   string
	CategoryID  string
	ThreadID    string
	IsThread    *bool
	MemberRoles []string

	Actor       Actor
	Message     Message
	Interaction Interaction
	Channel     Channel
}

type (
	stringCandidate func(ResolutionRequest) string
	boolCandidate   func(ResolutionRequest) *bool
	actorCandidate  func(ResolutionRequest) Actor
)

var userIDCandidates = []stringCandidate{
	func(r ResolutionRequest) string { return r.UserID },
	func(r ResolutionRequest) string {
		if r.Actor == nil {
			return ""
		}
		return r.Actor.ID()
	},
	func(r ResolutionRequest) string {
		if r.Actor == nil {
			return ""
		}
		return r.Actor.UserID()
	},
	func(r ResolutionRequest) string {
		if r.Message == nil {
			return ""
		}
		return r.Message.AuthorID()
	},
	func(r ResolutionRequest) string {
		if r.Interaction == nil {
			return ""
		}
		return r.Interaction.UserID()
	},
}

var channelIDCandidates = []stringCandidate{
	func(r ResolutionRequest) string { return r.ChannelID },
	func(r ResolutionRequest) string { return idOf(plainChannel(r.Channel)) },
	func(r ResolutionRequest) string { return parentIDOf(threadChannel(r.Channel)) },
	func(r ResolutionRequest) string { return parentIDOf(threadChannel(messageChannel(r.Message))) },
	func(r ResolutionRequest) string { return idOf(plainChannel(messageChannel(r.Message))) },
	func(r ResolutionRequest) string { return idOf(interactionChannel(r.Interaction)) },
}

// A thread's category is its parent channel's parent, two hops up.
var categoryIDCandidates = []stringCandidate{
	func(r ResolutionRequest) string { return r.CategoryID },
	func(r ResolutionRequest) string { return parentIDOf(plainChannel(r.Channel)) },
	func(r ResolutionRequest) string { return grandparentIDOf(threadChannel(r.Channel)) },
	func(r ResolutionRequest) string { return grandparentIDOf(threadChannel(messageChannel(r.Message))) },
	func(r ResolutionRequest) string { return parentIDOf(plainChannel(messageChannel(r.Message))) },
	func(r ResolutionRequest) string {
		return grandparentIDOf(threadChannel(interactionChannel(r.Interaction)))
	},
	func(r ResolutionRequest) string { return parentIDOf(plainChannel(interactionChannel(r.Interaction))) },
}

var threadIDCandidates = []stringCandidate{
	func(r ResolutionRequest) string { return r.ThreadID },
	func(r ResolutionRequest) string { return idOf(threadChannel(r.Channel)) },
	func(r ResolutionRequest) string { return idOf(threadChannel(messageChannel(r.Message))) },
	func(r ResolutionRequest) string { return idOf(threadChannel(interactionChannel(r.Interaction))) },
}

var isThreadCandidates = []boolCandidate{
	func(r ResolutionRequest) *bool { return r.IsThread },
	func(r ResolutionRequest) *bool { return threadFlag(r.Channel) },
	func(r ResolutionRequest) *bool { return threadFlag(messageChannel(r.Message)) },
	func(r ResolutionRequest) *bool { return threadFlag(interactionChannel(r.Interaction)) },
}

var actorCandidates = []actorCandidate{
	func(r ResolutionRequest) Actor { return r.Actor },
	func(r ResolutionRequest) Actor {
		if r.Message == nil {
			return nil
		}
		return r.Message.Member()
	},
	func(r ResolutionRequest) Actor {
		if r.Interaction == nil {
			return nil
		}
		return r.Interaction.Member()
	},
}

// ResolveParams derives canonical match parameters from req. Each field walks
// its own candidate chain and takes the first value found. The level is only
// derived when an actor resolves and a host is available.
func ResolveParams(req ResolutionRequest, levels PermissionLevels, host Host) MatchParams {
	actor := firstActor(req, actorCandidates)

	params := MatchParams{
		UserID:     firstString(req, userIDCandidates),
		ChannelID:  firstString(req, channelIDCandidates),
		CategoryID: firstString(req, categoryIDCandidates),
		ThreadID:   firstString(req, threadIDCandidates),
		IsThread:   firstBool(req, isThreadCandidates),
	}

	switch {
	case req.Level != nil:
		level := *req.Level
		params.Level = &level
	case actor != nil && host != nil:
		level := GetLevel(levels, actor, host)
		params.Level = &level
	}

	switch {
	case req.MemberRoles != nil:
		params.MemberRoles = append([]string{}, req.MemberRoles...)
	case actor != nil:
		params.MemberRoles = GetRoles(actor)
	}
	if params.MemberRoles == nil {
		params.MemberRoles = []string{}
	}
	return params
}

func firstString(req ResolutionRequest, candidates []stringCandidate) string {
	for _, candidate := range candidates {
		if value := candidate(req); value != "" {
			return value
		}
	}
	return ""
}

func firstBool(req ResolutionRequest, candidates []boolCandidate) *bool {
	for _, candidate := range candidates {
		if value := candidate(req); value != nil {
			out := *value
			return &out
		}
	}
	return nil
}

func firstActor(req ResolutionRequest, candidates []actorCandidate) Actor {
	for _, candidate := range candidates {
		if actor := candidate(req); actor != nil {
			return actor
		}
	}
	return nil
}

func messageChannel(msg Message) Channel {
	if msg == nil {
		return nil
	}
	return msg.Channel()
}

func interactionChannel(event Interaction) Channel {
	if event == nil {
		return nil
	}
	return event.Channel()
}

func threadChannel(ch Channel) Channel {
	if ch == nil || !ch.IsThread() {
		return nil
	}
	return ch
}

func plainChannel(ch Channel) Channel {
	if ch == nil || ch.IsThread() {
		return nil
	}
	return ch
}

func threadFlag(ch Channel) *bool {
	if ch == nil {
		return nil
	}
	value := ch.IsThread()
	return &value
}

func idOf(ch Channel) string {
	if ch == nil {
		return ""
	}
	return ch.ID()
}

func parentIDOf(ch Channel) string {
	if ch == nil {
		return ""
	}
	return ch.ParentID()
}

func grandparentIDOf(ch Channel) string {
	if ch == nil {
		return ""
	}
	return parentIDOf(ch.Parent())
}
