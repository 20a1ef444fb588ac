package state

// validTransitions lists the forward and back steps of each flow.
// Entering a flow from idle happens through SetState, so idle only lists
// the flows that may also be entered via TransitionTo.
var validTransitions = map[State][]State{
	StateIdle: {
		StateLoginEmail,
		StateRegisterEmail,
		StateCatalogSearch,
		StateDepositMethod,
		StateWithdrawMethod,
		StateProfileEdit,
		StateAdminBonusForm,
	},
	StateLoginEmail:        {StateLoginPassword},
	StateRegisterEmail:     {StateRegisterUsername},
	StateRegisterUsername:  {StateRegisterPassword, StateRegisterEmail},
	StateRegisterPassword:  {StateRegisterUsername},
	StateDepositMethod:     {StateDepositAmount},
	StateDepositAmount:     {StateDepositConfirm, StateDepositMethod},
	StateDepositConfirm:    {StateDepositAmount},
	StateWithdrawMethod:    {StateWithdrawAmount},
	StateWithdrawAmount:    {StateWithdrawAccount, StateWithdrawMethod},
	StateWithdrawAccount:   {StateWithdrawConfirm, StateWithdrawAmount},
	StateWithdrawConfirm:   {StateWithdrawAccount},
	StateAdminBonusForm:    {StateAdminBonusConfirm},
	StateAdminBonusConfirm: {StateAdminBonusForm},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
// Idle and error are always reachable.
func IsTransitionAllowed(from, to State) bool {
	if to == StateError || to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}

// IsWizard reports whether st belongs to a multi-step flow.
func IsWizard(st State) bool {
	return st != "" && st != StateIdle
}
