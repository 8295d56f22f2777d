package gate

// builtinConfigs returns the six gates named in SPEC_FULL.md §C/D,
// grounded in gate_registry.py's run_accountant / check_stop_gate /
// check_session_start_gate / run_task_binding, re-expressed as
// GenericGate configs per lib/gates/engine.py's declarative shape.
func builtinConfigs() []Config {
	return []Config{
		hydrationGate(),
		taskRequiredGate(),
		custodietGate(),
		handoverGate(),
		qaGate(),
		criticGate(),
	}
}

func hydrationGate() Config {
	return Config{
		Name:          "hydration",
		InitialStatus: "open",
		Triggers: []Trigger{
			{
				Name:      "hydrator-completed",
				Condition: Condition{CustomCheck: "hydrator_completed"},
				Transition: Transition{
					TargetStatus:      "open",
					ResetOpsCounter:   true,
					CustomAction:      "clear_hydration_pending",
					SystemMessageTmpl: "hydration complete",
				},
			},
		},
	}
}

func taskRequiredGate() Config {
	return Config{
		Name:          "task_required",
		InitialStatus: "open",
		Policies: []Policy{
			{
				Name: "deny-unbound-write",
				Condition: Condition{
					HookEvent:              "PreToolUse",
					ExcludedToolCategories: []string{"read", "meta"},
					CustomCheck:            "task_unbound_and_unsafe",
				},
				Verdict:           VerdictDeny,
				SystemMessageTmpl: "no task bound — bind a task before {tool_name} can modify state",
			},
		},
	}
}

func custodietGate() Config {
	return Config{
		Name:          "custodiet",
		InitialStatus: "closed",
		Triggers: []Trigger{
			{
				Name:      "custodiet-invoked",
				Condition: Condition{CustomCheck: "is_custodiet_invocation"},
				Transition: Transition{
					TargetStatus:    "closed",
					ResetOpsCounter: true,
				},
			},
		},
		Countdown: &Countdown{
			Metric:      "ops_since_close",
			Threshold:   7,
			StartBefore: 2,
			WarnTmpl:    "custodiet review due in {custodiet_remaining} ops",
			DenyTmpl:    "custodiet review overdue — invoke the compliance review before proceeding",
		},
	}
}

func handoverGate() Config {
	return Config{
		Name:          "handover",
		InitialStatus: "open",
		Triggers: []Trigger{
			{
				Name:      "destructive-closes-handover",
				Condition: Condition{HookEvent: "PostToolUse", CustomCheck: "is_actually_destructive"},
				Transition: Transition{TargetStatus: "closed"},
			},
			{
				Name:      "handover-skill-reopens",
				Condition: Condition{HookEvent: "PostToolUse", CustomCheck: "is_handover_skill_invocation"},
				Transition: Transition{TargetStatus: "open", ResetOpsCounter: true},
			},
		},
		Policies: []Policy{
			{
				Name:              "deny-stop-without-handover",
				Condition:         Condition{HookEvent: "Stop", CurrentStatus: "closed", CustomCheck: "handover_required"},
				Verdict:           VerdictDeny,
				SystemMessageTmpl: "handover incomplete — destructive changes made since last handover",
			},
		},
	}
}

func qaGate() Config {
	return Config{
		Name:          "qa",
		InitialStatus: "open",
		Policies: []Policy{
			{
				Name:              "deny-stop-without-qa",
				Condition:         Condition{HookEvent: "Stop", CustomCheck: "qa_required_and_missing"},
				Verdict:           VerdictDeny,
				SystemMessageTmpl: "QA not invoked for this workflow before stopping",
			},
		},
		Triggers: []Trigger{
			{
				Name:       "qa-invoked",
				Condition:  Condition{CustomCheck: "is_qa_invocation"},
				Transition: Transition{CustomAction: "mark_qa_invoked"},
			},
		},
	}
}

func criticGate() Config {
	return Config{
		Name:          "critic",
		InitialStatus: "open",
		Policies: []Policy{
			{
				Name:              "deny-stop-without-critic",
				Condition:         Condition{HookEvent: "Stop", CustomCheck: "critic_required_and_missing"},
				Verdict:           VerdictDeny,
				SystemMessageTmpl: "hydrated but zero sub-agents ran — invoke a critic before stopping",
			},
		},
		Triggers: []Trigger{
			{
				Name:       "critic-invoked",
				Condition:  Condition{HookEvent: "PostToolUse", CustomCheck: "is_critic_invocation"},
				Transition: Transition{CustomAction: "record_critic_verdict"},
			},
		},
	}
}
