package domain

// KeyPrefix is prepended to every storage key.
const KeyPrefix = "studymeter:"
