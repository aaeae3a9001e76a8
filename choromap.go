package choromap

const Version = "0.3.1"
