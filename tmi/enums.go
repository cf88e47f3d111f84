package tmi

// UserNoticeKind задаёт подтип USERNOTICE, выбранный по тегу msg-id.
type UserNoticeKind uint8

const (
	UserNoticeNone UserNoticeKind = iota
	UserNoticeSubscription
	UserNoticeResubscription
	UserNoticeSubscriptionGift
	UserNoticeSubscriptionMysteryGift
	UserNoticeGiftPaidUpgrade
	UserNoticeGiftReward
	UserNoticeAnonymousGiftPaidUpgrade
	UserNoticeRaid
	UserNoticeRitual
	UserNoticeBitsBadgeTier
	UserNoticeAnnouncement
	UserNoticeCommunityPayForward
	UserNoticeStandardPayForward
)

// unraid намеренно отображается в UserNoticeNone.
var userNoticeKinds = map[string]UserNoticeKind{
	"sub":                 UserNoticeSubscription,
	"resub":               UserNoticeResubscription,
	"subgift":             UserNoticeSubscriptionGift,
	"submysterygift":      UserNoticeSubscriptionMysteryGift,
	"giftpaidupgrade":     UserNoticeGiftPaidUpgrade,
	"rewardgift":          UserNoticeGiftReward,
	"anongiftpaidupgrade": UserNoticeAnonymousGiftPaidUpgrade,
	"raid":                UserNoticeRaid,
	"unraid":              UserNoticeNone,
	"ritual":              UserNoticeRitual,
	"bitsbadgetier":       UserNoticeBitsBadgeTier,
	"announcement":        UserNoticeAnnouncement,
	"communitypayforward": UserNoticeCommunityPayForward,
	"standardpayforward":  UserNoticeStandardPayForward,
}

var userNoticeNames = [...]string{
	UserNoticeNone:                     "none",
	UserNoticeSubscription:             "sub",
	UserNoticeResubscription:           "resub",
	UserNoticeSubscriptionGift:         "subgift",
	UserNoticeSubscriptionMysteryGift:  "submysterygift",
	UserNoticeGiftPaidUpgrade:          "giftpaidupgrade",
	UserNoticeGiftReward:               "rewardgift",
	UserNoticeAnonymousGiftPaidUpgrade: "anongiftpaidupgrade",
	UserNoticeRaid:                     "raid",
	UserNoticeRitual:                   "ritual",
	UserNoticeBitsBadgeTier:            "bitsbadgetier",
	UserNoticeAnnouncement:             "announcement",
	UserNoticeCommunityPayForward:      "communitypayforward",
	UserNoticeStandardPayForward:       "standardpayforward",
}

func (k UserNoticeKind) String() string {
	if int(k) < len(userNoticeNames) {
		return userNoticeNames[k]
	}
	return userNoticeNames[UserNoticeNone]
}

// SubPlan задаёт уровень подписки из msg-param-sub-plan.
type SubPlan uint8

const (
	SubPlanNone SubPlan = iota
	SubPlanPrime
	SubPlanTier1
	SubPlanTier2
	SubPlanTier3
)

var subPlans = map[string]SubPlan{
	"Prime": SubPlanPrime,
	"1000":  SubPlanTier1,
	"2000":  SubPlanTier2,
	"3000":  SubPlanTier3,
}

func (p SubPlan) String() string {
	switch p {
	case SubPlanPrime:
		return "Prime"
	case SubPlanTier1:
		return "1000"
	case SubPlanTier2:
		return "2000"
	case SubPlanTier3:
		return "3000"
	default:
		return "none"
	}
}

// UserType задаёт роль пользователя из тега user-type.
type UserType uint8

const (
	UserTypeNormal UserType = iota
	UserTypeMod
	UserTypeAdmin
	UserTypeGlobalMod
	UserTypeStaff
	UserTypeUnknown
)

var userTypes = map[string]UserType{
	"":           UserTypeNormal,
	"mod":        UserTypeMod,
	"admin":      UserTypeAdmin,
	"global_mod": UserTypeGlobalMod,
	"staff":      UserTypeStaff,
}

func (t UserType) String() string {
	switch t {
	case UserTypeNormal:
		return "normal"
	case UserTypeMod:
		return "mod"
	case UserTypeAdmin:
		return "admin"
	case UserTypeGlobalMod:
		return "global_mod"
	case UserTypeStaff:
		return "staff"
	default:
		return "unknown"
	}
}

// GoalContributionType задаёт тип цели из msg-param-goal-contribution-type.
type GoalContributionType uint8

const (
	GoalContributionUnknown GoalContributionType = iota
	GoalContributionSubs
	GoalContributionSubPoints
)

var goalContributionTypes = map[string]GoalContributionType{
	"SUBS":       GoalContributionSubs,
	"SUB_POINTS": GoalContributionSubPoints,
}

func (g GoalContributionType) String() string {
	switch g {
	case GoalContributionSubs:
		return "SUBS"
	case GoalContributionSubPoints:
		return "SUB_POINTS"
	default:
		return "unknown"
	}
}
