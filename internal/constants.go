package internal

const ApplicationName = "cwe-lookup"
