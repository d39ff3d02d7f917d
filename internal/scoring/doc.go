// Package scoring defines the contract for the external spaced-repetition
// scoring function. Given a card's current state and the user's rating, a
// Scorer returns the card's next state. The scheduling algorithm itself lives
// outside this application; see platform/fsrs for the HTTP implementation.
package scoring
