package github

// QualifiedRefForTest exposes qualifiedRef.
var QualifiedRefForTest = qualifiedRef
