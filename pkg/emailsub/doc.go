// Package emailsub adds per-subscription email opt-in on top of the flag based
// subscription pipeline.
//
// Every subscription flag "subscribe_<suffix>" has an email counterpart
// "email_<suffix>". Holding the counterpart on the same entity means the account
// wants that subscription delivered by email:
//
//   - Alterer is a subscribers.RecipientsAlterer that adds the email channel to
//     candidates holding the counterpart of one of their subscription flags.
//   - FlagEvents is a flag.Listener that mirrors subscription flag events onto
//     the counterparts for accounts that opted into email.
//
// Wiring:
//
//	mgr := emailsub.NewManager(flags, subCfg, emailsub.DefaultConfig())
//	flags.AddListener(emailsub.NewFlagEvents(mgr, prefs))
//	resolver := subscribers.NewResolver(subCfg, expander,
//		subscribers.WithRecipientsAlterer(emailsub.NewAlterer(mgr)),
//	)
package emailsub
