// Package kattis reads judge exports and turns a student's submission
// history into evaluation plugins.
//
// The export is a JSON document with a list of students (each with their
// submissions) and a list of problem sessions (team results). History
// indexes one student's submissions by problem; Plugins exposes it to rule
// expressions through operators such as solved, solved-before and uppgift.
package kattis
