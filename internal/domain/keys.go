package domain

// KeyPrefix is the default prefix for every key in the shared keyspace.
const KeyPrefix = "geocore:"
