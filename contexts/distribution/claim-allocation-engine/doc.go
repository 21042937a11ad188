// Package claimallocationengine contains the codedrop Claim Allocation Engine.
//
// Pools publish a fixed quota of entitlements in SINGLE, MULTI or MANUAL mode.
// The engine gates every attempt, reserves quota atomically and records exactly
// one claim per claimant per pool. Domain and application logic stay decoupled
// from storage and transport through ports and adapter composition.
package claimallocationengine
