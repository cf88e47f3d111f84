package tmi

// Представления msg-param-* для отдельных видов USERNOTICE.

type SubscriptionTags struct {
	CumulativeMonths   int
	ShouldShareStreak  bool
	StreakMonths       int
	SubPlan            SubPlan
	SubPlanName        string
	MultimonthDuration int
	MultimonthTenure   int
	WasGifted          bool
}

type SubGiftTags struct {
	Months               int
	RecipientDisplayName string
	RecipientID          string
	RecipientUsername    string
	SubPlan              SubPlan
	SubPlanName          string
	GiftMonths           int
	MassGiftCount        int
}

type GiftPaidUpgradeTags struct {
	PromoGiftTotal int
	PromoName      string
	SenderLogin    string
	SenderName     string
}

type PaidForwardTags struct {
	PriorGifterAnonymous   bool
	PriorGifterID          string
	PriorGifterDisplayName string
	PriorGifterUsername    string
	RecipientDisplayName   string
	RecipientID            string
	RecipientUsername      string
}

type RitualTags struct {
	RitualName string
}

type BitsBadgeTierTags struct {
	Threshold int
}

type RaidTags struct {
	DisplayName     string
	Login           string
	ViewerCount     int
	ProfileImageURL string
}

func (t UserNoticeTags) Subscription() SubscriptionTags {
	p := t.Params
	return SubscriptionTags{
		CumulativeMonths:   p.CumulativeMonths,
		ShouldShareStreak:  p.ShouldShareStreak,
		StreakMonths:       p.StreakMonths,
		SubPlan:            p.SubPlan,
		SubPlanName:        p.SubPlanName,
		MultimonthDuration: p.MultimonthDuration,
		MultimonthTenure:   p.MultimonthTenure,
		WasGifted:          p.WasGifted,
	}
}

func (t UserNoticeTags) SubGift() SubGiftTags {
	p := t.Params
	return SubGiftTags{
		Months:               p.Months,
		RecipientDisplayName: p.RecipientDisplayName,
		RecipientID:          p.RecipientID,
		RecipientUsername:    p.RecipientUsername,
		SubPlan:              p.SubPlan,
		SubPlanName:          p.SubPlanName,
		GiftMonths:           p.GiftMonths,
		MassGiftCount:        p.MassGiftCount,
	}
}

func (t UserNoticeTags) GiftPaidUpgrade() GiftPaidUpgradeTags {
	p := t.Params
	return GiftPaidUpgradeTags{
		PromoGiftTotal: p.PromoGiftTotal,
		PromoName:      p.PromoName,
		SenderLogin:    p.SenderLogin,
		SenderName:     p.SenderName,
	}
}

func (t UserNoticeTags) PaidForward() PaidForwardTags {
	p := t.Params
	return PaidForwardTags{
		PriorGifterAnonymous:   p.PriorGifterAnonymous,
		PriorGifterID:          p.PriorGifterID,
		PriorGifterDisplayName: p.PriorGifterDisplayName,
		PriorGifterUsername:    p.PriorGifterUsername,
		RecipientDisplayName:   p.RecipientDisplayName,
		RecipientID:            p.RecipientID,
		RecipientUsername:      p.RecipientUsername,
	}
}

func (t UserNoticeTags) Ritual() RitualTags {
	return RitualTags{RitualName: t.Params.RitualName}
}

func (t UserNoticeTags) BitsBadgeTier() BitsBadgeTierTags {
	return BitsBadgeTierTags{Threshold: t.Params.Threshold}
}

func (t UserNoticeTags) Raid() RaidTags {
	p := t.Params
	return RaidTags{
		DisplayName:     p.DisplayName,
		Login:           p.Login,
		ViewerCount:     p.ViewerCount,
		ProfileImageURL: p.ProfileImageURL,
	}
}
