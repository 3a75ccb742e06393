package service

import "errors"

var errTransfer = errors.New("token transfer reverted")
