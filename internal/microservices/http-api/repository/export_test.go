package repository

var IsUniqueViolation = isUniqueViolation
